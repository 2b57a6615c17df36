// Package model はドメインモデルを定義する。
package model

import "time"

// MinPreferredCategories は設定時に必要な優先カテゴリの最小数。
const MinPreferredCategories = 5

// User はサービス利用ユーザーを表す。エンジンからは読み取り専用の入力。
type User struct {
	ID                  string
	Name                string
	Email               string
	PreferredCategories []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PrefersCategory は指定カテゴリがユーザーの優先カテゴリに含まれるかを返す。
func (u *User) PrefersCategory(category string) bool {
	for _, c := range u.PreferredCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Friendship は対称な友人関係を表す。
// (UserA < UserB) の正規順で1行のみ保存し、対称性は読み取り時に展開する。
type Friendship struct {
	UserA     string
	UserB     string
	CreatedAt time.Time
}

// CanonicalPair はユーザーIDのペアを正規順（辞書順）に並べ替えて返す。
func CanonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
