package payment

import (
	"github.com/brpag/gateway/internal/payment/postprocess"
	"github.com/brpag/gateway/internal/payment/repository"
	"github.com/brpag/gateway/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
	postprocess.Module,
)
