// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VeritasNews/Backend/internal/model"
	"github.com/VeritasNews/Backend/internal/repository"
)

// Service はユーザー管理のサービス層。
// プロフィール、優先カテゴリ、友人関係、いいね集合を扱う。
type Service struct {
	userRepo       repository.UserRepository
	friendshipRepo repository.FriendshipRepository
	likeRepo       repository.LikeRepository
	articleRepo    repository.ArticleRepository
	now            func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	friendshipRepo repository.FriendshipRepository,
	likeRepo repository.LikeRepository,
	articleRepo repository.ArticleRepository,
) *Service {
	return &Service{
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
		likeRepo:       likeRepo,
		articleRepo:    articleRepo,
		now:            time.Now,
	}
}

// Create はユーザーを作成する。メールアドレスは小文字に正規化し、重複を拒否する。
func (s *Service) Create(ctx context.Context, name, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, model.NewInvalidRequestError("名前とメールアドレスは必須です")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError(email)
	}

	now := s.now()
	user := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを作成しました", slog.String("user_id", user.ID))
	return user, nil
}

// Get は指定IDのユーザーを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}
	return user, nil
}

// UpdatePreferredCategories はユーザーの優先カテゴリを置き換える。
// 5件以上、かつすべて既知のカテゴリであることを要求する。重複は除去する。
func (s *Service) UpdatePreferredCategories(ctx context.Context, userID string, categories []string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(categories))
	unique := make([]string, 0, len(categories))
	for _, c := range categories {
		if !model.IsValidCategory(c) {
			return model.NewInvalidCategoryError(c)
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	if len(unique) < model.MinPreferredCategories {
		return model.NewTooFewCategoriesError(len(unique))
	}

	if err := s.userRepo.UpdatePreferredCategories(ctx, userID, unique); err != nil {
		return fmt.Errorf("優先カテゴリの更新に失敗しました: %w", err)
	}
	return nil
}

// AddFriend は対称な友人関係を追加する。冪等で、自己友人は拒否する。
func (s *Service) AddFriend(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return model.NewSelfFriendshipError()
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	if _, err := s.Get(ctx, friendID); err != nil {
		return err
	}

	if err := s.friendshipRepo.Add(ctx, userID, friendID); err != nil {
		return fmt.Errorf("友人関係の追加に失敗しました: %w", err)
	}
	return nil
}

// ListFriends は友人のプロフィール一覧を返す。
func (s *Service) ListFriends(ctx context.Context, userID string) ([]*model.User, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	ids, err := s.friendshipRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("友人一覧の取得に失敗しました: %w", err)
	}

	friends := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		friend, err := s.userRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("友人の取得に失敗しました: %w", err)
		}
		if friend != nil {
			friends = append(friends, friend)
		}
	}
	return friends, nil
}

// LikeArticle は記事へのいいねを冪等に追加する。
func (s *Service) LikeArticle(ctx context.Context, userID, articleID string) error {
	if err := s.ensureArticleExists(ctx, articleID); err != nil {
		return err
	}
	if err := s.likeRepo.Like(ctx, userID, articleID); err != nil {
		return fmt.Errorf("いいねの追加に失敗しました: %w", err)
	}
	return nil
}

// UnlikeArticle は記事へのいいねを取り消す。
func (s *Service) UnlikeArticle(ctx context.Context, userID, articleID string) error {
	if err := s.ensureArticleExists(ctx, articleID); err != nil {
		return err
	}
	if err := s.likeRepo.Unlike(ctx, userID, articleID); err != nil {
		return fmt.Errorf("いいねの取り消しに失敗しました: %w", err)
	}
	return nil
}

// ListLikedArticles はユーザーがいいねした記事一覧を新しい順に返す。
func (s *Service) ListLikedArticles(ctx context.Context, userID string) ([]*model.Article, error) {
	articles, err := s.likeRepo.ListLikedArticles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("いいね一覧の取得に失敗しました: %w", err)
	}
	return articles, nil
}

func (s *Service) ensureArticleExists(ctx context.Context, articleID string) error {
	article, err := s.articleRepo.FindByID(ctx, articleID)
	if err != nil {
		return fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if article == nil {
		return model.NewArticleNotFoundError(articleID)
	}
	return nil
}
