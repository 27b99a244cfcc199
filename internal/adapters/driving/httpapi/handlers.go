package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

func (s *Server) health(c echo.Context) error {
	vectorOK := false
	if s.ports.Vectors != nil {
		vectorOK = s.ports.Vectors.HealthCheck(c.Request().Context())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"vectorIndex": vectorOK,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) process(c echo.Context) error {
	if err := s.ports.Ingestion.Submit(c.Request().Context(), c.Param("documentId")); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]bool{"success": true})
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}

	msg, err := s.ports.Chat.Send(c.Request().Context(), req.SessionID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"message": toMessage(msg)})
}

func (s *Server) uploadDocument(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: file is required", domain.ErrValidation)
	}
	f, err := header.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	// A recognised content type is used only when the form names no type.
	fileType := domain.ParseMediaType(c.FormValue("fileType"))
	if fileType == "" {
		if ct := domain.ParseMediaType(header.Header.Get(echo.HeaderContentType)); ct.IsSupported() {
			fileType = ct
		}
	}

	doc, err := s.ports.Documents.Upload(c.Request().Context(), driving.UploadRequest{
		UserID:   c.FormValue("userId"),
		Name:     c.FormValue("name"),
		FileName: header.Filename,
		FileType: fileType,
		Data:     data,
	})
	if err != nil {
		return err
	}

	if process, _ := strconv.ParseBool(c.QueryParam("process")); process {
		if err := s.ports.Ingestion.Submit(c.Request().Context(), doc.ID); err != nil {
			logger.Warn("Could not queue ingestion for %s: %v", doc.ID, err)
		}
	}
	return c.JSON(http.StatusCreated, toDocument(doc))
}

func (s *Server) listDocuments(c echo.Context) error {
	docs, err := s.ports.Documents.List(c.Request().Context(), c.QueryParam("userId"))
	if err != nil {
		return err
	}
	out := make([]documentResponse, len(docs))
	for i := range docs {
		out[i] = toDocument(&docs[i])
	}
	return c.JSON(http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) getDocument(c echo.Context) error {
	doc, err := s.ports.Documents.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDocument(doc))
}

func (s *Server) documentChunks(c echo.Context) error {
	chunks, err := s.ports.Documents.Chunks(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	type chunkResponse struct {
		Index      int    `json:"index"`
		Content    string `json:"content"`
		TokenCount int    `json:"tokenCount"`
	}
	out := make([]chunkResponse, len(chunks))
	for i, ch := range chunks {
		out[i] = chunkResponse{Index: ch.Index, Content: ch.Content, TokenCount: ch.TokenCount}
	}
	return c.JSON(http.StatusOK, map[string]any{"chunks": out})
}

func (s *Server) deleteDocument(c echo.Context) error {
	if err := s.ports.Documents.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) createSession(c echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}

	session, err := s.ports.Chat.CreateSession(c.Request().Context(), driving.CreateSessionRequest{
		UserID:      req.UserID,
		Title:       req.Title,
		DocumentIDs: req.DocumentIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSession(session))
}

func (s *Server) listSessions(c echo.Context) error {
	sessions, err := s.ports.Chat.ListSessions(c.Request().Context(), c.QueryParam("userId"))
	if err != nil {
		return err
	}
	out := make([]sessionResponse, len(sessions))
	for i := range sessions {
		out[i] = toSession(&sessions[i])
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) sessionMessages(c echo.Context) error {
	msgs, err := s.ports.Chat.Messages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]messageResponse, len(msgs))
	for i := range msgs {
		out[i] = toMessage(&msgs[i])
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": out})
}
