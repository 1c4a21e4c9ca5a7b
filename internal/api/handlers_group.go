package api

import "Vigia/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	CompetitorHandler *handler.CompetitorHandler
	MetricHandler     *handler.MetricHandler
	WSHandler         *handler.WsHandler
}
