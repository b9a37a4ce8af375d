// Модели клиентской сессии: пара токенов, декодированная личность
// и аутентифицированный пользователь в форме REST-бэкенда.
package models

import "time"

// Ключи, под которыми пара токенов лежит в хранилище.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// TokenPair - пара токенов, выдаваемая бэкендом при login/register/refresh.
//
// Описание:
//   - AccessToken - короткоживущий JWT, предъявляется как Bearer на обычных запросах;
//   - RefreshToken - долгоживущий секрет, предъявляется только на /auth/refresh;
//     бэкенд ротирует его при каждом обновлении.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Complete сообщает, что записаны обе половины пары.
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Identity - claims access-токена, прочитанные без проверки подписи.
// Используются только для решений на клиенте (exp) и отображения.
type Identity struct {
	Subject   string
	Email     string
	IssuedAt  int64
	ExpiresAt int64
}

// Remaining - сколько осталось до exp относительно now.
func (i Identity) Remaining(now time.Time) time.Duration {
	return time.Unix(i.ExpiresAt, 0).Sub(now)
}

// User проецирует личность на AuthenticatedUser.
func (i Identity) User() User {
	return User{ID: i.Subject, Email: i.Email}
}

// User - аутентифицированный пользователь (AuthenticatedUser), как его отдаёт /users/me.
type User struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// Credentials - тело запросов /auth/local/login и /auth/local/register.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
