package executor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sunnyhub/openwhisk/utils"
)

func doRun(t *testing.T, req *InvocationRequest) *RunResult {
	body, err := json.Marshal(req)
	utils.AssertNil(t, err)

	r := httptest.NewRequest(http.MethodPost, "/init", bytes.NewReader(body))
	w := httptest.NewRecorder()

	RunHandler(w, r)

	resp := w.Result()
	defer resp.Body.Close()

	result := &RunResult{}
	utils.AssertNil(t, json.NewDecoder(resp.Body).Decode(result))
	return result
}

func TestRunHandlerSuccess(t *testing.T) {
	result := doRun(t, &InvocationRequest{Command: []string{"true"}})
	utils.AssertTrue(t, result.Success)
	utils.AssertEquals(t, 0, result.ExitCode)
}

func TestRunHandlerNonZeroExit(t *testing.T) {
	result := doRun(t, &InvocationRequest{Command: []string{"false"}})
	utils.AssertFalse(t, result.Success)
	utils.AssertEquals(t, 1, result.ExitCode)
}

func TestRunHandlerCustomCmdFallback(t *testing.T) {
	os.Setenv("CUSTOM_CMD", "true")
	defer os.Unsetenv("CUSTOM_CMD")

	result := doRun(t, &InvocationRequest{})
	utils.AssertTrue(t, result.Success)
}

func TestRunHandlerMissingCommand(t *testing.T) {
	os.Unsetenv("CUSTOM_CMD")

	r := httptest.NewRequest(http.MethodPost, "/init", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	RunHandler(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	utils.AssertEquals(t, http.StatusBadRequest, resp.StatusCode)
}
