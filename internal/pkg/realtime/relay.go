package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"recipe_community/pkg/logger"
	"recipe_community/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher 业务层的发布入口
type Publisher interface {
	Publish(ctx context.Context, room string, payload interface{}) error
}

// RedisRelay 通过 Redis pub/sub 把消息广播给所有实例的 Hub
// 至多一次投递，不做持久化
type RedisRelay struct {
	rdb    *redis.Client
	hub    *Hub
	prefix string
}

func NewRedisRelay(rdb *redis.Client, hub *Hub, prefix string) *RedisRelay {
	if prefix == "" {
		prefix = "realtime:"
	}
	return &RedisRelay{rdb: rdb, hub: hub, prefix: prefix}
}

// Publish payload 以 JSON 编码
func (r *RedisRelay) Publish(ctx context.Context, room string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	err = r.rdb.Publish(ctx, r.prefix+room, data).Err()
	metrics.RecordRealtimePublish(err == nil)
	return err
}

// Start 订阅成功后返回，转发循环在后台运行直到 ctx 取消
func (r *RedisRelay) Start(ctx context.Context) error {
	sub := r.rdb.PSubscribe(ctx, r.prefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				room := strings.TrimPrefix(msg.Channel, r.prefix)
				r.hub.Broadcast(room, []byte(msg.Payload))
			case <-ctx.Done():
				return
			}
		}
	}()
	logger.Log.Info("realtime relay subscribed", zap.String("pattern", r.prefix+"*"))
	return nil
}

// LocalRelay 单实例部署时直接投递给本地 Hub
type LocalRelay struct {
	hub *Hub
}

func NewLocalRelay(hub *Hub) *LocalRelay {
	return &LocalRelay{hub: hub}
}

func (r *LocalRelay) Publish(ctx context.Context, room string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	r.hub.Broadcast(room, data)
	metrics.RecordRealtimePublish(true)
	return nil
}
