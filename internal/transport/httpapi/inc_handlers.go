package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	domaininc "rncflow/internal/domain/inc"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
	"rncflow/internal/usecase/inc"
)

func (s *Server) createINC(c echo.Context) error {
	var req createINCRequest
	if err := bindJSON(c, "http.create_inc", &req); err != nil {
		return err
	}
	record, err := s.services.INC.Create(c.Request().Context(), actorFrom(c), inc.CreateInput{
		SupplierID: req.SupplierID,
		Quantidade: req.Quantidade,
		Unidade:    req.Unidade,
		NotaFiscal: req.NotaFiscal,
		NumeroAR:   req.NumeroAR,
		Descricao:  req.Descricao,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newINCResponse(record))
}

func (s *Server) listINCs(c echo.Context) error {
	var (
		filter ports.INCFilter
		status string
	)
	if err := echo.QueryParamsBinder(c).
		Uint64("supplierId", &filter.SupplierID).
		String("status", &status).
		Int("limit", &filter.Limit).
		Int("offset", &filter.Offset).
		BindError(); err != nil {
		return errs.Validationf("http.list_incs", "invalid query: %v", err)
	}
	filter.Status = domaininc.Status(status)

	items, err := s.services.INC.List(c.Request().Context(), actorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(items, newINCResponse))
}

func (s *Server) getINC(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	record, err := s.services.INC.Get(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newINCResponse(record))
}
