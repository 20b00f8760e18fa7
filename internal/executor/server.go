package executor

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

const resultFile = "/tmp/_executor_result.json"
const paramsFile = "/tmp/_executor.params"

func readExecutionResult(resultFile string) string {
	content, err := os.ReadFile(resultFile)
	if err != nil {
		log.Printf("%v", err)
		return ""
	}

	return string(content)
}

// RunHandler execs the action's entrypoint command and reports a timestamped
// RunResult. It backs every /init call made against the container, both the
// cold-start one issued by NewCreateFunc and the warm-reuse ones the
// dispatcher issues via container.Invoke.
func RunHandler(w http.ResponseWriter, r *http.Request) {
	reqDecoder := json.NewDecoder(r.Body)
	req := &InvocationRequest{}
	if err := reqDecoder.Decode(req); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	os.Setenv("RESULT_FILE", resultFile)
	os.Setenv("HANDLER", req.Handler)
	os.Setenv("HANDLER_DIR", req.HandlerDir)
	if req.Params == nil {
		os.Setenv("PARAMS_FILE", "")
	} else {
		paramsB, _ := json.Marshal(req.Params)
		if err := os.WriteFile(paramsFile, paramsB, 0644); err != nil {
			log.Printf("Could not write parameters to %s", paramsFile)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		os.Setenv("PARAMS_FILE", paramsFile)
	}

	cmd := req.Command
	if len(cmd) < 1 {
		// this request is either invalid or uses a custom runtime
		// in the latter case, we find the command in the env
		customCmd, ok := os.LookupEnv("CUSTOM_CMD")
		if !ok {
			http.Error(w, "missing command", http.StatusBadRequest)
			return
		}
		cmd = strings.Split(customCmd, " ")
	}

	startedAt := time.Now()
	execCmd := exec.Command(cmd[0], cmd[1:]...)
	out, err := execCmd.CombinedOutput()
	endedAt := time.Now()

	resp := &RunResult{StartedAt: startedAt, EndedAt: endedAt, CombinedOutput: string(out)}
	if err != nil {
		log.Printf("cmd.Run() failed with %s\n", err)
		resp.Success = false
		resp.ExitCode = exitCodeOf(err)
	} else {
		resp.Success = true
		resp.Result = readExecutionResult(resultFile)
	}

	w.Header().Set("Content-Type", "application/json")
	respBody, _ := json.Marshal(resp)
	w.Write(respBody)
}

func exitCodeOf(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}
