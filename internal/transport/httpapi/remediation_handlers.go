package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"rncflow/internal/domain/access"
	"rncflow/internal/domain/remediation"
	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
	"rncflow/internal/usecase/conserto"
	"rncflow/internal/usecase/devolucao"
)

func remediationFilter(c echo.Context, op string) (ports.RemediationFilter, error) {
	var filter ports.RemediationFilter
	if err := echo.QueryParamsBinder(c).
		Uint64("rncId", &filter.RncID).
		String("status", &filter.Status).
		Int("limit", &filter.Limit).
		Int("offset", &filter.Offset).
		BindError(); err != nil {
		return ports.RemediationFilter{}, errs.Validationf(op, "invalid query: %v", err)
	}
	return filter, nil
}

func (s *Server) createDevolucao(c echo.Context) error {
	var req createDevolucaoRequest
	if err := bindJSON(c, "http.create_devolucao", &req); err != nil {
		return err
	}
	record, err := s.services.Devolucao.Create(c.Request().Context(), actorFrom(c), devolucao.CreateInput{
		RncID:      req.RncID,
		Observacao: req.Observacao,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newDevolucaoResponse(record))
}

func (s *Server) listDevolucoes(c echo.Context) error {
	filter, err := remediationFilter(c, "http.list_devolucoes")
	if err != nil {
		return err
	}
	items, err := s.services.Devolucao.List(c.Request().Context(), actorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(items, newDevolucaoResponse))
}

func (s *Server) getDevolucao(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	record, err := s.services.Devolucao.Get(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDevolucaoResponse(record))
}

func (s *Server) deleteDevolucao(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.services.Devolucao.Remove(c.Request().Context(), actorFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type devolucaoStep func(ctx context.Context, actor access.Actor, id uint64) (remediation.Devolucao, error)

type devolucaoUploadStep func(ctx context.Context, actor access.Actor, id uint64, files []upload.File) (remediation.Devolucao, error)

func (s *Server) devolucaoStep(step devolucaoStep) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		record, err := step(c.Request().Context(), actorFrom(c), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newDevolucaoResponse(record))
	}
}

func (s *Server) devolucaoUpload(field string, step devolucaoUploadStep) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		files, err := s.formFiles(c, field)
		if err != nil {
			return err
		}
		record, err := step(c.Request().Context(), actorFrom(c), id, files)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newDevolucaoResponse(record))
	}
}

func (s *Server) createConserto(c echo.Context) error {
	var req createConsertoRequest
	if err := bindJSON(c, "http.create_conserto", &req); err != nil {
		return err
	}
	view, err := s.services.Conserto.Create(c.Request().Context(), actorFrom(c), conserto.CreateInput{
		RncID:          req.RncID,
		Frete:          req.Frete,
		Transportadora: req.Transportadora,
		Observacao:     req.Observacao,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newConsertoResponse(view))
}

func (s *Server) listConsertos(c echo.Context) error {
	filter, err := remediationFilter(c, "http.list_consertos")
	if err != nil {
		return err
	}
	items, err := s.services.Conserto.List(c.Request().Context(), actorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(items, newConsertoResponse))
}

func (s *Server) getConserto(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := s.services.Conserto.Get(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newConsertoResponse(view))
}

func (s *Server) deleteConserto(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.services.Conserto.Remove(c.Request().Context(), actorFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type consertoStep func(ctx context.Context, actor access.Actor, id uint64) (conserto.View, error)

type consertoUploadStep func(ctx context.Context, actor access.Actor, id uint64, files []upload.File) (conserto.View, error)

type inspectionStep func(ctx context.Context, actor access.Actor, id uint64, descricao string, files []upload.File) (conserto.View, error)

func (s *Server) consertoStep(step consertoStep) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		view, err := step(c.Request().Context(), actorFrom(c), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newConsertoResponse(view))
	}
}

func (s *Server) consertoUpload(field string, step consertoUploadStep) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		files, err := s.formFiles(c, field)
		if err != nil {
			return err
		}
		view, err := step(c.Request().Context(), actorFrom(c), id, files)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newConsertoResponse(view))
	}
}

func (s *Server) inspection(step inspectionStep) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		files, err := s.formFiles(c, upload.InspectionPhotos.Field)
		if err != nil {
			return err
		}
		view, err := step(c.Request().Context(), actorFrom(c), id, formValue(c, "descricao"), files)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newConsertoResponse(view))
	}
}
