// Package retrain は学習パイプラインの起動トリガーを提供する。
// 適格なインタラクションのたびにクールダウンを検査し、窓が開いた場合
// のみ学習ジョブを非同期にディスパッチする。
package retrain

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultCooldown は再学習ディスパッチの最小間隔。
const DefaultCooldown = 10 * time.Minute

// dispatchTimeout はバックグラウンドディスパッチ1回あたりの上限時間。
const dispatchTimeout = 30 * time.Second

// Dispatcher は学習パイプラインの起動要求を送る。
type Dispatcher interface {
	Dispatch(ctx context.Context) error
}

// DispatchRecorder は再学習ディスパッチの発生を記録する。
type DispatchRecorder interface {
	IncRetrainDispatch()
}

// Trigger はクールダウン付きの再学習トリガーを表す。
// 最終ディスパッチ時刻をアトミックなcompare-and-swapで更新するため、
// 同一瞬間に到着した複数のインタラクションでも窓ごとに1回だけ
// ディスパッチされる。
type Trigger struct {
	lastDispatch atomic.Int64 // Unixナノ秒。0は未ディスパッチ
	cooldown     time.Duration
	dispatcher   Dispatcher
	logger       *slog.Logger
	recorder     DispatchRecorder
	now          func() time.Time

	// onSuccess はディスパッチ成功後に呼ばれる。モデルアーティファクトの
	// 再読み込みなどに使う。nil可。
	onSuccess func()
}

// NewTrigger はTriggerを生成する。cooldownが0以下の場合はデフォルト値を使う。
// recorder、onSuccessはnil可。
func NewTrigger(dispatcher Dispatcher, cooldown time.Duration, logger *slog.Logger, recorder DispatchRecorder, onSuccess func()) *Trigger {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Trigger{
		cooldown:   cooldown,
		dispatcher: dispatcher,
		logger:     logger,
		recorder:   recorder,
		now:        time.Now,
		onSuccess:  onSuccess,
	}
}

// NotifyInteraction は適格なインタラクションの発生を通知する。
// クールダウン窓が開いていればバックグラウンドでディスパッチを開始し
// trueを返す。窓内、またはCAS競合に敗れた場合はfalseを返す。
// ディスパッチの失敗はログに記録され、呼び出し元には伝播しない。
func (t *Trigger) NotifyInteraction() bool {
	now := t.now()
	last := t.lastDispatch.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < t.cooldown {
		return false
	}
	// CASに勝ったゴルーチンだけがディスパッチする
	if !t.lastDispatch.CompareAndSwap(last, now.UnixNano()) {
		return false
	}

	go t.dispatch()
	return true
}

// LastDispatch は最終ディスパッチ時刻を返す。未ディスパッチの場合はゼロ値。
func (t *Trigger) LastDispatch() time.Time {
	last := t.lastDispatch.Load()
	if last == 0 {
		return time.Time{}
	}
	return time.Unix(0, last)
}

func (t *Trigger) dispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if t.recorder != nil {
		t.recorder.IncRetrainDispatch()
	}
	if err := t.dispatcher.Dispatch(ctx); err != nil {
		t.logger.Error("再学習パイプラインの起動に失敗しました", "error", err)
		return
	}
	t.logger.Info("再学習パイプラインを起動しました")
	if t.onSuccess != nil {
		t.onSuccess()
	}
}
