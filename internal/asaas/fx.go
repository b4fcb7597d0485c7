package asaas

import (
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("asaas",
	fx.Provide(func(client *Client) paymentdomain.Provider { return client }),
	fx.Provide(NewClient),
)
