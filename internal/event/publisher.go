// Package event はドメインイベントの発行を提供する。
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hitoshi/ecoshop/internal/model"
)

// OrderPlaced は注文確定時に発行されるイベント。
type OrderPlaced struct {
	OrderID     string            `json:"orderId"`
	UserID      string            `json:"userId"`
	PaymentType string            `json:"paymentType"`
	Total       string            `json:"total"`
	Items       []OrderPlacedItem `json:"items"`
	PlacedAt    time.Time         `json:"placedAt"`
}

// OrderPlacedItem はOrderPlacedの明細。
// UnitPriceは注文時点の価格スナップショットを丸めずに保持する。
type OrderPlacedItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

// NewOrderPlaced は注文からOrderPlacedイベントを生成する。
func NewOrderPlaced(o *model.Order) OrderPlaced {
	items := make([]OrderPlacedItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderPlacedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.String(),
		}
	}
	return OrderPlaced{
		OrderID:     o.ID,
		UserID:      o.UserID,
		PaymentType: string(o.PaymentType),
		Total:       model.FormatMoney(o.Total()),
		Items:       items,
		PlacedAt:    o.CreatedAt,
	}
}

// Publisher は注文イベントの発行インターフェース。
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error
	Close() error
}

// Writer はkafka.Writerのうち使用するメソッドのみを抽出したインターフェース。
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher はKafkaへイベントを書き込むPublisher実装。
// メッセージキーにユーザーIDを使用し、同一ユーザーの注文順序を保つ。
type KafkaPublisher struct {
	writer Writer
	logger *slog.Logger
}

// KafkaConfig はKafkaPublisherの設定。
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// NewKafkaPublisher はKafkaPublisherを生成する。
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
		BatchTimeout: 10 * time.Millisecond,
		Transport: &kafka.Transport{
			Dial: (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error("kafka writer error", slog.String("detail", fmt.Sprintf(msg, args...)))
		}),
	}
	return NewKafkaPublisherWithWriter(w, logger)
}

// NewKafkaPublisherWithWriter は任意のWriterを使用するKafkaPublisherを生成する。
func NewKafkaPublisherWithWriter(w Writer, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// PublishOrderPlaced はOrderPlacedイベントを同期的に書き込む。
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("OrderPlaced")},
		},
		Time: ev.PlacedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

// Close はWriterを閉じる。
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop は何も発行しないPublisher。KAFKA_BROKERS未設定時に使用する。
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
func (Nop) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = Nop{}
)
