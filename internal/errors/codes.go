package errors

// エラーコード定数
// 形式: CATEGORY_SPECIFIC_DETAIL
// フロントエンドはこのコードでメッセージを出し分ける

const (
	// ==================== 認証 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // ログインが必要
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // ID/パスワード不一致
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // トークン期限切れ
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // 不正なトークン
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // ログアウト済みトークン
	AuthLoginIDExists      = "AUTH_LOGIN_ID_EXISTS"     // ログインID重複

	// ==================== 認可 (AUTHZ_) ====================
	AuthzForbidden       = "AUTHZ_FORBIDDEN"        // アクセス権限なし
	AuthzHeadquarterOnly = "AUTHZ_HEADQUARTER_ONLY" // 本社のみ
	AuthzPresidentOnly   = "AUTHZ_PRESIDENT_ONLY"   // 社長のみ

	// ==================== 入力検証 (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // 不正な入力
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // 不正なID
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // 形式エラー
	ValidationRequired      = "VALIDATION_REQUIRED"       // 必須項目
	ValidationTooLong       = "VALIDATION_TOO_LONG"       // 長すぎる

	// ==================== リソース (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 見つからない
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 既に存在
	ResourceConflict      = "RESOURCE_CONFLICT"       // 競合

	// ==================== 会社・施設 (COMPANY_ / FACILITY_) ====================
	CompanyNotFound  = "COMPANY_NOT_FOUND"  // 会社なし
	FacilityNotFound = "FACILITY_NOT_FOUND" // 施設なし

	// ==================== 清掃記録 (RECORD_) ====================
	RecordNotFound = "RECORD_NOT_FOUND" // 記録なし
	RecordMismatch = "RECORD_MISMATCH"  // 施設・部屋が記録と一致しない

	// ==================== 清掃画像 (IMAGE_) ====================
	ImageNotFound = "IMAGE_NOT_FOUND" // 画像なし

	// ==================== 領収書 (RECEIPT_) ====================
	ReceiptNotFound = "RECEIPT_NOT_FOUND" // 領収書なし

	// ==================== 依頼・通知 ====================
	ApplicationNotFound  = "APPLICATION_NOT_FOUND"  // 依頼なし
	NotificationNotFound = "NOTIFICATION_NOT_FOUND" // 通知なし

	// ==================== アップロード (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // 不正なファイル形式
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"    // ファイルが大きすぎる
	UploadFailed          = "UPLOAD_FAILED"            // アップロード失敗

	// ==================== ストレージ (STORAGE_) ====================
	StorageUnavailable = "STORAGE_UNAVAILABLE" // オブジェクトストレージ障害

	// ==================== 内部エラー (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // サーバーエラー
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DBエラー
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 外部APIエラー
)
