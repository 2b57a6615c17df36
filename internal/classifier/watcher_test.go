package classifier

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeArtifactAt(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("アーティファクトの書き込みに失敗: %v", err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("更新時刻の設定に失敗: %v", err)
	}
}

func TestWatcher_Check_SwapsOnNewerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	base := time.Now().Add(-time.Hour)
	writeArtifactAt(t, path, `{"version":"v1","features":["recency"],"weights":[1.0],"bias":0}`, base)

	store := NewStore()
	watcher := NewWatcher(store, path, discardLogger())

	if err := watcher.Check(context.Background()); err != nil {
		t.Fatalf("Check エラー: %v", err)
	}
	if got := store.Current(); got == nil || got.Version != "v1" {
		t.Fatalf("Current = %+v, want v1", got)
	}

	// 再学習パイプラインが同一パスへ新モデルを書き出した状況を再現する
	writeArtifactAt(t, path, `{"version":"v2","features":["recency","popularity"],"weights":[1.0,0.5],"bias":0.1}`, base.Add(time.Minute))

	if err := watcher.Check(context.Background()); err != nil {
		t.Fatalf("2回目のCheck エラー: %v", err)
	}
	if got := store.Current(); got == nil || got.Version != "v2" {
		t.Errorf("差し替え後のCurrent = %+v, want v2", got)
	}
}

func TestWatcher_Check_SkipsUnchangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	base := time.Now().Add(-time.Hour)
	writeArtifactAt(t, path, `{"version":"v1","features":["recency"],"weights":[1.0],"bias":0}`, base)

	store := NewStore()
	watcher := NewWatcher(store, path, discardLogger())

	if err := watcher.Check(context.Background()); err != nil {
		t.Fatalf("Check エラー: %v", err)
	}
	first := store.Current()

	if err := watcher.Check(context.Background()); err != nil {
		t.Fatalf("2回目のCheck エラー: %v", err)
	}
	// 更新時刻が変わっていなければ再読み込みしない
	if store.Current() != first {
		t.Error("未更新ファイルでアーティファクトが差し替わった")
	}
}

func TestWatcher_Check_KeepsModelOnBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	base := time.Now().Add(-time.Hour)
	writeArtifactAt(t, path, `{"version":"v1","features":["recency"],"weights":[1.0],"bias":0}`, base)

	store := NewStore()
	watcher := NewWatcher(store, path, discardLogger())

	if err := watcher.Check(context.Background()); err != nil {
		t.Fatalf("Check エラー: %v", err)
	}

	writeArtifactAt(t, path, `broken`, base.Add(time.Minute))

	if err := watcher.Check(context.Background()); err == nil {
		t.Error("不正アーティファクトでエラーが返らなかった")
	}
	if got := store.Current(); got == nil || got.Version != "v1" {
		t.Errorf("読み込み失敗後もv1を維持すべき: %+v", got)
	}

	// 壊れたファイルの時刻を記録していないため、修復後は再度取り込める
	writeArtifactAt(t, path, `{"version":"v2","features":["recency"],"weights":[2.0],"bias":0}`, base.Add(2*time.Minute))
	if err := watcher.Check(context.Background()); err != nil {
		t.Fatalf("修復後のCheck エラー: %v", err)
	}
	if got := store.Current(); got == nil || got.Version != "v2" {
		t.Errorf("修復後のCurrent = %+v, want v2", got)
	}
}

func TestWatcher_Check_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	store := NewStore()
	watcher := NewWatcher(store, path, discardLogger())

	if err := watcher.Check(context.Background()); err == nil {
		t.Error("存在しないファイルでエラーが返らなかった")
	}
	if store.Current() != nil {
		t.Error("ファイル不在でアーティファクトが設定された")
	}
}

func TestWatcher_Start_ObservesSwap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	base := time.Now().Add(-time.Hour)
	writeArtifactAt(t, path, `{"version":"v1","features":["recency"],"weights":[1.0],"bias":0}`, base)

	store := NewStore()
	watcher := NewWatcher(store, path, discardLogger())
	if err := watcher.Check(context.Background()); err != nil {
		t.Fatalf("初回Check エラー: %v", err)
	}

	writeArtifactAt(t, path, `{"version":"v2","features":["recency"],"weights":[2.0],"bias":0}`, base.Add(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		watcher.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(3 * time.Second)
	for {
		if current := store.Current(); current != nil && current.Version == "v2" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Watcherが新しいアーティファクトを取り込まなかった")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("キャンセル後にStartが終了しなかった")
	}
}
