package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 標準エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`   // エラーコード（フロントエンドのマッピング用）
	Message string `json:"message"` // 利用者向けメッセージ（日本語）
}

// RespondWithError エラーレスポンスのヘルパー
// statusCode: HTTPステータス
// errorCode: エラーコード定数（codes.go 参照）
// message: 利用者に表示する日本語メッセージ
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// よく使うエラーレスポンスの短縮関数

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "ログインが必要です"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "アクセス権限がありません"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "サーバーエラーが発生しました。しばらくしてから再度お試しください"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// StorageUnavailableError オブジェクトストレージ障害（詳細はログのみ）
func StorageUnavailableError(c *gin.Context) {
	RespondWithError(c, http.StatusBadGateway, StorageUnavailable, "ファイルの保存先に接続できませんでした。しばらくしてから再度お試しください")
}

// ValidationError 複数フィールドの検証エラー
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"` // フィールド別メッセージ
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "入力内容が正しくありません",
		Fields:  fields,
	})
}
