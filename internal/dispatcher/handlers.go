package dispatcher

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sunnyhub/openwhisk/internal/action"
	"github.com/sunnyhub/openwhisk/internal/container"
	"github.com/sunnyhub/openwhisk/internal/containerpool"
	"github.com/sunnyhub/openwhisk/internal/executor"
)

type runResponse struct {
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleRun resolves the action, acquires a container from the pool
// (creating one on a cache miss), invokes it, and always returns the
// container to the pool before the handler returns.
func (s *Server) handleRun(c echo.Context) error {
	namespace := c.Param("namespace")
	name := c.Param("action")
	reqID := newRequestID()

	act, found := action.GetAction(namespace, name)
	if !found {
		return c.JSON(http.StatusNotFound, runResponse{RequestID: reqID, Error: "action not found"})
	}

	authUUID := c.Request().Header.Get("X-Auth-Key")
	if authUUID != "" {
		if _, found := action.GetAuthKey(authUUID); !found {
			return c.JSON(http.StatusUnauthorized, runResponse{RequestID: reqID, Error: "invalid auth key"})
		}
	}

	var params map[string]string
	if err := c.Bind(&params); err != nil && err != echo.ErrUnsupportedMediaType {
		return c.JSON(http.StatusBadRequest, runResponse{RequestID: reqID, Error: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.requestTimeout)
	defer cancel()

	key := containerpool.ActionKey(authUUID, act.Fqn(), act.Revision)
	invReq := &executor.InvocationRequest{Command: act.Limits.Cmd, Params: params}

	opts := &container.ContainerOptions{
		Cmd:      act.Limits.Cmd,
		MemoryMB: act.Limits.MemoryMB,
	}
	create := s.pool.NewCreateFunc(act.Image, opts, act.Fqn(), invReq)

	cid, coldResult, err := s.pool.Get(ctx, key, create)
	if err != nil {
		if ctx.Err() != nil {
			return c.JSON(http.StatusServiceUnavailable, runResponse{RequestID: reqID, Error: "pool busy, timed out waiting for a container"})
		}
		return c.JSON(http.StatusInternalServerError, runResponse{RequestID: reqID, Error: err.Error()})
	}

	result := coldResult
	if result == nil {
		// A cache hit never re-runs init; this is a warm invocation.
		result, err = container.Invoke(s.backend, cid, invReq)
	}

	terminal := err != nil || (result != nil && !result.Success)
	defer func() {
		if perr := s.pool.PutBack(cid, terminal); perr != nil {
			log.Printf("dispatcher: putBack failed for %s: %v", cid, perr)
		}
	}()

	if err != nil {
		return c.JSON(http.StatusInternalServerError, runResponse{RequestID: reqID, Error: err.Error()})
	}

	return c.JSON(http.StatusOK, runResponse{RequestID: reqID, Success: result.Success, Result: result.Result})
}

type imageRunRequest struct {
	Image    string            `json:"image"`
	Args     []string          `json:"args"`
	Cmd      []string          `json:"cmd"`
	Params   map[string]string `json:"params"`
	MemoryMB int64             `json:"memoryMB"`
}

// handleRunImage is the raw-image counterpart of handleRun: it drives the
// pool straight off an image reference instead of a resolved action, so
// there is no namespace/name lookup and no auth-key check.
func (s *Server) handleRunImage(c echo.Context) error {
	reqID := newRequestID()

	var body imageRunRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, runResponse{RequestID: reqID, Error: err.Error()})
	}
	if body.Image == "" {
		return c.JSON(http.StatusBadRequest, runResponse{RequestID: reqID, Error: "image is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.requestTimeout)
	defer cancel()

	key := containerpool.ImageKey(body.Image, body.Args)
	invReq := &executor.InvocationRequest{Command: body.Cmd, Params: body.Params}

	opts := &container.ContainerOptions{Cmd: body.Cmd, MemoryMB: body.MemoryMB}
	create := s.pool.NewCreateFunc(body.Image, opts, body.Image, invReq)

	cid, coldResult, err := s.pool.Get(ctx, key, create)
	if err != nil {
		if ctx.Err() != nil {
			return c.JSON(http.StatusServiceUnavailable, runResponse{RequestID: reqID, Error: "pool busy, timed out waiting for a container"})
		}
		return c.JSON(http.StatusInternalServerError, runResponse{RequestID: reqID, Error: err.Error()})
	}

	result := coldResult
	if result == nil {
		result, err = container.Invoke(s.backend, cid, invReq)
	}

	terminal := err != nil || (result != nil && !result.Success)
	defer func() {
		if perr := s.pool.PutBack(cid, terminal); perr != nil {
			log.Printf("dispatcher: putBack failed for %s: %v", cid, perr)
		}
	}()

	if err != nil {
		return c.JSON(http.StatusInternalServerError, runResponse{RequestID: reqID, Error: err.Error()})
	}

	return c.JSON(http.StatusOK, runResponse{RequestID: reqID, Success: result.Success, Result: result.Result})
}

type statusResponse struct {
	Active      int   `json:"active"`
	Idle        int   `json:"idle"`
	Starting    int   `json:"starting"`
	MaxActive   int   `json:"maxActive"`
	MaxIdle     int   `json:"maxIdle"`
	GCThreshold int64 `json:"gcThresholdSeconds"`
	GCEnabled   bool  `json:"gcEnabled"`
	GCSwept     uint64 `json:"gcSweptTotal"`
}

func (s *Server) handleStatus(c echo.Context) error {
	st := s.pool.Status()
	return c.JSON(http.StatusOK, statusResponse{
		Active:      st.Active,
		Idle:        st.Idle,
		Starting:    st.Starting,
		MaxActive:   st.MaxActive,
		MaxIdle:     st.MaxIdle,
		GCThreshold: int64(st.GCThreshold.Seconds()),
		GCEnabled:   st.GCEnabled,
		GCSwept:     st.GCSwept,
	})
}

func (s *Server) handleGCForce(c echo.Context) error {
	s.pool.ForceGC()
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleGCEnable(c echo.Context) error {
	s.pool.EnableGC()
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleGCDisable(c echo.Context) error {
	s.pool.DisableGC()
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleKillStragglers(c echo.Context) error {
	if err := s.pool.KillStragglers(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
