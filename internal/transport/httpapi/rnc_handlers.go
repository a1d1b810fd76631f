package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
	"rncflow/internal/usecase/rnc"
)

func (s *Server) createRNC(c echo.Context) error {
	var req createRNCRequest
	if err := bindJSON(c, "http.create_rnc", &req); err != nil {
		return err
	}
	view, err := s.services.RNC.Create(c.Request().Context(), actorFrom(c), rnc.CreateInput{
		IncID:         req.IncID,
		Descricao:     req.Descricao,
		Reincidente:   req.Reincidente,
		RncAnteriorID: req.RncAnteriorID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newRNCResponse(view))
}

func (s *Server) listRNCs(c echo.Context) error {
	var input rnc.ListInput
	if err := echo.QueryParamsBinder(c).
		Uint64("supplierId", &input.SupplierID).
		String("status", &input.Status).
		Int("ano", &input.Ano).
		String("numero", &input.Numero).
		Int("limit", &input.Limit).
		Int("offset", &input.Offset).
		BindError(); err != nil {
		return errs.Validationf("http.list_rncs", "invalid query: %v", err)
	}

	items, err := s.services.RNC.List(c.Request().Context(), actorFrom(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(items, newRNCResponse))
}

func (s *Server) getRNC(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := s.services.RNC.Get(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRNCResponse(view))
}

func (s *Server) rncHistory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	events, err := s.services.RNC.History(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(events, newEventResponse))
}

func (s *Server) deleteRNC(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.services.RNC.Remove(c.Request().Context(), actorFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) acceptPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	files, err := s.formFiles(c, upload.PlanDocument.Field)
	if err != nil {
		return err
	}
	view, err := s.services.RNC.AcceptActionPlan(c.Request().Context(), actorFrom(c), id, files)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRNCResponse(view))
}

func (s *Server) rejectPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	files, err := s.formFiles(c, upload.PlanDocument.Field)
	if err != nil {
		return err
	}
	view, err := s.services.RNC.RejectActionPlan(c.Request().Context(), actorFrom(c), id, formValue(c, "justification"), files)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRNCResponse(view))
}

func (s *Server) setRNCStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bindJSON(c, "http.set_rnc_status", &req); err != nil {
		return err
	}
	view, err := s.services.RNC.SetAdministrativeStatus(c.Request().Context(), actorFrom(c), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRNCResponse(view))
}

func (s *Server) regenerateDocument(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := s.services.RNC.RegenerateDocument(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRNCResponse(view))
}
