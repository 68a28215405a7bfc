package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "op_mirror_refresh_total",
		Help: "Количество синхронизаций зеркала по результату",
	}, []string{"status"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "op_mirror_refresh_duration_seconds",
		Help:    "Длительность синхронизации зеркала",
		Buckets: prometheus.DefBuckets,
	})

	mirrorFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "op_mirror_files",
		Help: "Количество файлов в зеркале после последней синхронизации",
	})

	mirrorAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "op_mirror_assets",
		Help: "Количество объектов портфеля в зеркале после последней синхронизации",
	})
)

// Refresher — фоновая периодическая синхронизация зеркала с бэкендом.
// Зеркало остаётся пригодным и при недоступном бэкенде: неудачная
// итерация логируется, прежнее состояние сохраняется до следующей.
type Refresher struct {
	store    *Store
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	done     chan struct{}
	stopped  chan struct{}
}

// NewRefresher создаёт фоновый синхронизатор.
// interval — период между итерациями, timeout — лимит одной итерации.
func NewRefresher(store *Store, interval, timeout time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		store:    store,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "refresher")),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start выполняет первичную синхронизацию и запускает фоновый цикл.
// Ошибка первичной синхронизации не фатальна: портал поднимается
// с пустым зеркалом и дожидается, пока бэкенд проснётся.
func (r *Refresher) Start(ctx context.Context) {
	if err := r.refreshOnce(ctx); err != nil {
		r.logger.Warn("первичная синхронизация не удалась, зеркало пустое до следующей итерации",
			slog.String("error", err.Error()))
	}

	go r.run(ctx)
	r.logger.Info("фоновая синхронизация запущена", slog.Duration("interval", r.interval))
}

// Stop останавливает фоновый цикл и дожидается его завершения.
func (r *Refresher) Stop() {
	close(r.done)
	<-r.stopped
	r.logger.Info("фоновая синхронизация остановлена")
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.stopped)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.refreshOnce(ctx); err != nil {
				r.logger.Error("синхронизация зеркала не удалась",
					slog.String("error", err.Error()))
			}
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refreshOnce выполняет одну итерацию синхронизации с таймаутом
// и обновляет метрики.
func (r *Refresher) refreshOnce(ctx context.Context) error {
	refreshCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	err := r.store.Refresh(refreshCtx)
	refreshDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		return err
	}

	refreshTotal.WithLabelValues("success").Inc()
	mirrorFiles.Set(float64(len(r.store.Files())))
	mirrorAssets.Set(float64(len(r.store.Assets())))
	return nil
}
