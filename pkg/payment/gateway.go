package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"go.uber.org/zap"
)

var (
	ErrMissingAccessToken = errors.New("缺少 Mercado Pago access token")
	ErrInvalidPaymentID   = errors.New("支付编号无效")
)

// StatusApproved Mercado Pago 中已入账的支付状态
const StatusApproved = "approved"

// Confirmation 支付网关返回的支付结果
type Confirmation struct {
	PaymentID         string
	Status            string
	Amount            float64
	PayerEmail        string
	ExternalReference string
}

// Approved 支付是否已成功入账
func (c *Confirmation) Approved() bool {
	return c.Status == StatusApproved
}

// Gateway 支付网关抽象
//
//go:generate mockgen -source=gateway.go -destination=mock/gateway_mock.go -package=mock
type Gateway interface {
	GetPayment(ctx context.Context, paymentID string) (*Confirmation, error)
}

// MercadoPagoGateway 基于 Mercado Pago SDK 的网关实现
type MercadoPagoGateway struct {
	client mppayment.Client
	logger *zap.Logger
}

// NewMercadoPagoGateway 创建 Mercado Pago 网关
func NewMercadoPagoGateway(accessToken string, logger *zap.Logger) (*MercadoPagoGateway, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrMissingAccessToken
	}

	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("创建 Mercado Pago 配置失败: %w", err)
	}

	logger.Info("Mercado Pago 客户端初始化完成")
	return &MercadoPagoGateway{client: mppayment.NewClient(cfg), logger: logger}, nil
}

// GetPayment 查询支付详情
func (g *MercadoPagoGateway) GetPayment(ctx context.Context, paymentID string) (*Confirmation, error) {
	id, err := strconv.Atoi(strings.TrimSpace(paymentID))
	if err != nil || id <= 0 {
		return nil, ErrInvalidPaymentID
	}

	resp, err := g.client.Get(ctx, id)
	if err != nil {
		g.logger.Error("查询 Mercado Pago 支付失败", zap.Int("payment_id", id), zap.Error(err))
		return nil, fmt.Errorf("查询支付 %d 失败: %w", id, err)
	}

	return &Confirmation{
		PaymentID:         strconv.Itoa(resp.ID),
		Status:            resp.Status,
		Amount:            resp.TransactionAmount,
		PayerEmail:        strings.ToLower(strings.TrimSpace(resp.Payer.Email)),
		ExternalReference: resp.ExternalReference,
	}, nil
}
