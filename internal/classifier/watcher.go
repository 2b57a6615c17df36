package classifier

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Watcher はアーティファクトファイルの更新を監視し、ストアへ反映する。
// 再学習パイプラインが同一パスへ新しいアーティファクトを書き出すと、
// 次回のチェックで検出して稼働中のモデルを差し替える。
type Watcher struct {
	store       *Store
	path        string
	logger      *slog.Logger
	lastModTime time.Time
}

// NewWatcher は新しいWatcherを生成する。
func NewWatcher(store *Store, path string, logger *slog.Logger) *Watcher {
	return &Watcher{
		store:  store,
		path:   path,
		logger: logger,
	}
}

// Check はアーティファクトファイルの更新時刻を確認し、
// 前回チェックより新しい場合のみ再読み込みして差し替える。
// 読み込みに失敗した場合は現行モデルを維持する。
func (w *Watcher) Check(_ context.Context) error {
	info, err := os.Stat(w.path)
	if err != nil {
		return err
	}
	if !info.ModTime().After(w.lastModTime) {
		return nil
	}

	if err := w.store.Reload(w.path); err != nil {
		return err
	}
	w.lastModTime = info.ModTime()

	version := ""
	if current := w.store.Current(); current != nil {
		version = current.Version
	}
	w.logger.Info("モデルアーティファクトを差し替えました",
		slog.String("path", w.path),
		slog.String("version", version),
		slog.Time("mod_time", info.ModTime()),
	)
	return nil
}

// Start は指定間隔でアーティファクトの更新チェックを定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (w *Watcher) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("モデルアーティファクトの監視を開始しました",
		slog.String("path", w.path),
		slog.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("モデルアーティファクトの監視を停止しました")
			return
		case <-ticker.C:
			if err := w.Check(ctx); err != nil {
				w.logger.Warn("モデルアーティファクトの更新チェックに失敗しました",
					slog.String("path", w.path),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
