package postprocess

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("payment.postprocess",
	fx.Provide(
		NewQueue,
		FromApp,
		NewWorker,
	),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, w *Worker) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go w.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
