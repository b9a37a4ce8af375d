// apierror описывает ошибки REST-бэкенда в обе стороны:
//   - сервер (internal/backend) пишет единый конверт {"error":{code,message,request_id}};
//   - клиент (internal/clients) разбирает ответ не-2xx в *Error со статусом,
//     текстом статуса и машиночитаемым кодом.
//
// Текст статуса - то, по чему клиент различает «неверный пароль» и
// «нет такого пользователя» (см. Classify). В конверте это message,
// при его отсутствии берётся reason phrase из строки статуса.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes ограничивает чтение тела ошибки.
const maxBodyBytes = 64 << 10

// Kind - дискриминант ошибок login/register для подсветки нужного поля.
type Kind string

const (
	KindNone     Kind = ""
	KindPassword Kind = "password"
	KindUser     Kind = "user"
)

// APIError - единый формат тела ошибки.
// Code - короткий стабильный код для машиночитаемой обработки.
// Message - безопасное человекочитаемое описание.
// RequestID - прокидывается из X-Request-Id, если есть.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse - корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error - ошибка HTTP-уровня, полученная от бэкенда.
type Error struct {
	Status     int
	StatusText string
	Code       string
	RequestID  string
	Kind       Kind
}

func (e *Error) Error() string {
	if e.Kind != KindNone {
		return fmt.Sprintf("http %d: %s (%s)", e.Status, e.StatusText, e.Kind)
	}

	return fmt.Sprintf("http %d: %s", e.Status, e.StatusText)
}

// FromResponse строит *Error из ответа не-2xx. Тело читается не больше
// maxBodyBytes; вызывающий по-прежнему отвечает за resp.Body.Close().
func FromResponse(resp *http.Response) *Error {
	e := &Error{
		Status:     resp.StatusCode,
		StatusText: reasonPhrase(resp),
		RequestID:  resp.Header.Get("X-Request-Id"),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		return e
	}

	var env ErrorResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return e
	}

	if env.Error.Message != "" {
		e.StatusText = env.Error.Message
	}
	e.Code = env.Error.Code
	if env.Error.RequestID != "" {
		e.RequestID = env.Error.RequestID
	}

	return e
}

// reasonPhrase - "Unauthorized" из "401 Unauthorized"; пусто - стандартный текст.
func reasonPhrase(resp *http.Response) string {
	if _, phrase, ok := strings.Cut(resp.Status, " "); ok && phrase != "" {
		return phrase
	}

	return http.StatusText(resp.StatusCode)
}

// StatusCode - HTTP-статус первой *Error в цепочке; 0 для сетевых и прочих ошибок.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}

	return 0
}

// IsUnauthorized сообщает, что бэкенд ответил 401.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// Classify помечает ошибку login/register по тексту статуса:
// упоминание password - KindPassword, иначе упоминание user - KindUser.
// Эвристика для UI, а не гарантия протокола. Ошибки не от бэкенда
// возвращаются как есть.
func Classify(err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}

	text := strings.ToLower(e.StatusText)
	classified := *e

	switch {
	case strings.Contains(text, "password"):
		classified.Kind = KindPassword
	case strings.Contains(text, "user"):
		classified.Kind = KindUser
	default:
		return err
	}

	return &classified
}

// KindOf - дискриминант первой *Error в цепочке.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindNone
}

// Write - хелпер для HTTP-хендлеров: статус, конверт и request_id из заголовка.
func Write(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := ErrorResponse{Error: APIError{Code: code, Message: message}}

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteInternal - 500/internal без утечки деталей.
func WriteInternal(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusInternalServerError, "internal", "internal error")
}
