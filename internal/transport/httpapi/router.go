package httpapi

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rncflow/internal/domain/access"
	"rncflow/internal/domain/upload"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.healthz)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/v1", s.authenticate)

	incs := api.Group("/incs")
	incs.POST("", s.createINC)
	incs.GET("", s.listINCs)
	incs.GET("/:id", s.getINC)

	rncs := api.Group("/rncs")
	rncs.POST("", s.createRNC)
	rncs.GET("", s.listRNCs)
	rncs.GET("/:id", s.getRNC)
	rncs.GET("/:id/history", s.rncHistory)
	rncs.DELETE("/:id", s.deleteRNC)
	rncs.POST("/:id/plan/accept", s.acceptPlan)
	rncs.POST("/:id/plan/reject", s.rejectPlan)
	rncs.POST("/:id/status", s.setRNCStatus)
	rncs.POST("/:id/document", s.regenerateDocument)

	devolucoes := api.Group("/devolucoes")
	dev := s.services.Devolucao
	devolucoes.POST("", s.createDevolucao)
	devolucoes.GET("", s.listDevolucoes)
	devolucoes.GET("/:id", s.getDevolucao)
	devolucoes.DELETE("/:id", s.deleteDevolucao)
	devolucoes.POST("/:id/nfe", s.devolucaoUpload(upload.NFe.Field, dev.EmitNFe))
	devolucoes.POST("/:id/coleta", s.devolucaoStep(dev.ConfirmPickup))
	devolucoes.POST("/:id/recebimento", s.devolucaoStep(dev.ConfirmReceipt))
	devolucoes.POST("/:id/compensacao", s.devolucaoUpload(upload.CompensationProof.Field, dev.ConfirmCompensation))

	consertos := api.Group("/consertos")
	con := s.services.Conserto
	consertos.POST("", s.createConserto)
	consertos.GET("", s.listConsertos)
	consertos.GET("/:id", s.getConserto)
	consertos.DELETE("/:id", s.deleteConserto)
	consertos.POST("/:id/nfe", s.consertoUpload(upload.NFe.Field, con.EmitNFe))
	consertos.POST("/:id/coleta", s.consertoStep(con.ConfirmPickup))
	consertos.POST("/:id/recebimento", s.consertoStep(con.ConfirmReceipt))
	consertos.POST("/:id/retorno", s.consertoUpload(upload.ReturnNFe.Field, con.ConfirmReturn))
	consertos.POST("/:id/inspecao/aprovar", s.inspection(con.ApproveInspection))
	consertos.POST("/:id/inspecao/rejeitar", s.inspection(con.RejectInspection))

	api.GET("/notifications", s.listNotifications)
	api.POST("/notifications/:id/read", s.markNotificationRead)
	api.GET("/notification-settings", s.listNotificationSettings)
	api.PUT("/notification-settings/:code", s.setNotificationSetting)

	admin := api.Group("/admin", RequirePermission(access.NotificationsAdmin))
	admin.POST("/notification-types/sync", s.syncNotificationTypes)
	admin.POST("/notifications/sweep", s.sweepNotifications)
	admin.GET("/notifications/last-sweep", s.lastSweep)
}
