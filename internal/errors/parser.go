package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo エラー情報
type ErrorInfo struct {
	Code    string // エラーコード（codes.go 参照）
	Message string // 利用者向けメッセージ
}

// ParseError DB・ストレージ由来のエラーを利用者向けのコードとメッセージに変換する
// 内部の詳細（SQL、バケット名など）は返さない
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "サーバーエラーが発生しました",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    notFoundCode(context),
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL / SQLite 制約違反

	// 2-1. Unique (23505)
	if strings.Contains(errStrLower, "duplicate key") ||
		strings.Contains(errStrLower, "unique constraint") ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(errStr)
	}

	// 2-2. Foreign key (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr, context)
	}

	// 2-3. Not null (23502)
	if strings.Contains(errStrLower, "not-null constraint") || strings.Contains(errStrLower, "not null constraint") {
		return parseNotNullError(errStr)
	}

	// 3. オブジェクトストレージ
	if strings.Contains(errStrLower, "storage:") ||
		strings.Contains(errStrLower, "googleapi") ||
		strings.Contains(errStrLower, "s3:") {
		return ErrorInfo{
			Code:    StorageUnavailable,
			Message: "ファイルの保存先に接続できませんでした。しばらくしてから再度お試しください",
		}
	}

	// 4. ネットワーク
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "外部サービスへの接続に失敗しました。しばらくしてから再度お試しください",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "company_id") && strings.Contains(errLower, "companies") {
		return ErrorInfo{Code: AuthLoginIDExists, Message: "この会社IDは既に使用されています"}
	}
	if strings.Contains(errLower, "user_id") && strings.Contains(errLower, "users") {
		return ErrorInfo{Code: AuthLoginIDExists, Message: "このユーザーIDは既に使用されています"}
	}
	if strings.Contains(errLower, "facility_id") && strings.Contains(errLower, "facilities") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "この施設IDは既に登録されています"}
	}
	if strings.Contains(errLower, "idx_record_facility_room_date") {
		return ErrorInfo{Code: ResourceConflict, Message: "同じ日付・部屋の清掃記録が既に存在します"}
	}
	if strings.Contains(errLower, "idx_guideline_room_step") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "同じ手順番号のガイドラインが既に存在します"}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "既に存在するデータです",
	}
}

func parseForeignKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	// 削除対象が参照されている
	if strings.Contains(errLower, "still referenced") {
		if strings.Contains(context, "facility") || strings.Contains(context, "施設") {
			return ErrorInfo{Code: ResourceConflict, Message: "施設に関連するデータがあるため削除できません"}
		}
		if strings.Contains(context, "company") || strings.Contains(context, "会社") {
			return ErrorInfo{Code: ResourceConflict, Message: "会社に関連するデータがあるため削除できません"}
		}
		return ErrorInfo{Code: ResourceConflict, Message: "関連するデータがあるため削除できません"}
	}

	// 参照先が存在しない
	if strings.Contains(errLower, "facility_id") || strings.Contains(errLower, "fk_facilities") {
		return ErrorInfo{Code: FacilityNotFound, Message: "存在しない施設です"}
	}
	if strings.Contains(errLower, "company_id") || strings.Contains(errLower, "fk_companies") {
		return ErrorInfo{Code: CompanyNotFound, Message: "存在しない会社です"}
	}
	if strings.Contains(errLower, "record_id") {
		return ErrorInfo{Code: RecordNotFound, Message: "存在しない清掃記録です"}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "参照先のデータが見つかりません",
	}
}

func parseNotNullError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "password") {
		return ErrorInfo{Code: ValidationRequired, Message: "パスワードは必須です"}
	}
	if strings.Contains(errLower, "name") {
		return ErrorInfo{Code: ValidationRequired, Message: "名前は必須です"}
	}
	if strings.Contains(errLower, "room_type") {
		return ErrorInfo{Code: ValidationRequired, Message: "部屋の種類は必須です"}
	}

	return ErrorInfo{
		Code:    ValidationRequired,
		Message: "必須項目が入力されていません",
	}
}

func notFoundCode(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "facility"):
		return FacilityNotFound
	case strings.Contains(contextLower, "company"):
		return CompanyNotFound
	case strings.Contains(contextLower, "record"):
		return RecordNotFound
	case strings.Contains(contextLower, "image"):
		return ImageNotFound
	case strings.Contains(contextLower, "receipt"):
		return ReceiptNotFound
	}
	return ResourceNotFound
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "facility") || strings.Contains(contextLower, "施設") {
		return "施設が見つかりません"
	}
	if strings.Contains(contextLower, "company") || strings.Contains(contextLower, "会社") {
		return "会社が見つかりません"
	}
	if strings.Contains(contextLower, "user") || strings.Contains(contextLower, "ユーザー") {
		return "ユーザーが見つかりません"
	}
	if strings.Contains(contextLower, "record") || strings.Contains(contextLower, "記録") {
		return "清掃記録が見つかりません"
	}
	if strings.Contains(contextLower, "image") || strings.Contains(contextLower, "画像") {
		return "画像が見つかりません"
	}
	if strings.Contains(contextLower, "receipt") || strings.Contains(contextLower, "領収書") {
		return "領収書が見つかりません"
	}
	if strings.Contains(contextLower, "notification") || strings.Contains(contextLower, "通知") {
		return "通知が見つかりません"
	}

	return "指定されたデータが見つかりません"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") || strings.Contains(contextLower, "登録") {
		return "登録中にエラーが発生しました。しばらくしてから再度お試しください"
	}
	if strings.Contains(contextLower, "update") || strings.Contains(contextLower, "更新") {
		return "更新中にエラーが発生しました。しばらくしてから再度お試しください"
	}
	if strings.Contains(contextLower, "delete") || strings.Contains(contextLower, "削除") {
		return "削除中にエラーが発生しました。しばらくしてから再度お試しください"
	}
	if strings.Contains(contextLower, "upload") || strings.Contains(contextLower, "アップロード") {
		return "アップロード中にエラーが発生しました。しばらくしてから再度お試しください"
	}

	return "サーバーエラーが発生しました。しばらくしてから再度お試しください"
}

// ParseAndRespond ParseErrorの結果をそのままレスポンスとして返す
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
