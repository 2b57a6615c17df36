// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, article, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeArticleNotFound    = "ARTICLE_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidAction      = "INVALID_ACTION"
	ErrCodeInvalidCategory    = "INVALID_CATEGORY"
	ErrCodeInvalidPriority    = "INVALID_PRIORITY"
	ErrCodeTooFewCategories   = "TOO_FEW_CATEGORIES"
	ErrCodeInvalidTimestamp   = "INVALID_TIMESTAMP"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeSelfFriendship     = "SELF_FRIENDSHIP"
)

// NewArticleNotFoundError は記事未検出エラーを生成する。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", articleID),
		Category: "article",
		Action:   "記事IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewInvalidActionError は未知のアクション種別エラーを生成する。
func NewInvalidActionError(action string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAction,
		Message:  fmt.Sprintf("無効なアクションです: %s", action),
		Category: "validation",
		Action:   "アクションには view、click、like、share のいずれかを指定してください。",
	}
}

// NewInvalidCategoryError は未知のカテゴリエラーを生成する。
func NewInvalidCategoryError(category string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCategory,
		Message:  fmt.Sprintf("無効なカテゴリです: %s", category),
		Category: "validation",
		Action:   "カテゴリ一覧に含まれるカテゴリを指定してください。",
	}
}

// NewInvalidPriorityError は未知の優先度ラベルエラーを生成する。
func NewInvalidPriorityError(priority string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPriority,
		Message:  fmt.Sprintf("無効な優先度です: %s", priority),
		Category: "validation",
		Action:   "優先度には most、high、medium、low のいずれかを指定してください。",
	}
}

// NewTooFewCategoriesError は優先カテゴリ数不足エラーを生成する。
func NewTooFewCategoriesError(got int) *APIError {
	return &APIError{
		Code:     ErrCodeTooFewCategories,
		Message:  fmt.Sprintf("優先カテゴリは%d件以上必要です（指定: %d件）", MinPreferredCategories, got),
		Category: "validation",
		Action:   fmt.Sprintf("カテゴリを%d件以上選択してください。", MinPreferredCategories),
	}
}

// NewInvalidTimestampError は不正なタイムスタンプ形式のエラーを生成する。
func NewInvalidTimestampError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTimestamp,
		Message:  fmt.Sprintf("不正なタイムスタンプです: %s", raw),
		Category: "validation",
		Action:   "タイムスタンプはISO-8601形式で指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディ不正のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "user",
		Action:   "別のメールアドレスを使用してください。",
	}
}

// NewSelfFriendshipError は自分自身との友人関係エラーを生成する。
func NewSelfFriendshipError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfFriendship,
		Message:  "自分自身を友人に追加することはできません。",
		Category: "validation",
		Action:   "別のユーザーIDを指定してください。",
	}
}
