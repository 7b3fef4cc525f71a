package executor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"copilotflow/backend/internal/automator"
	"copilotflow/backend/internal/config"
	"copilotflow/backend/internal/models"
	"copilotflow/backend/internal/stream"
	"copilotflow/backend/pkg/vscode"
)

// runTimeout bounds one full automation pipeline: VS Code launch, endpoint
// probe, chat turn and transcript extraction.
const runTimeout = 10 * time.Minute

type ChatRunExecutor struct {
	maxWorkers  int
	workQueue   chan RunJob
	mutex       sync.RWMutex
	running     map[uint]bool
	cancels     map[uint]context.CancelFunc
	completions map[uint]chan bool // handler-confirmation channels per run
}

type RunJob struct {
	Run          *models.ChatRun
	FolderURI    string
	ResultChan   chan RunResult
	CompleteChan chan bool
}

type RunResult struct {
	Success      bool
	ErrorMessage string
	Messages     []automator.ChatMessage
	DOM          string
	Logs         []RunLog
}

type RunLog struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Phase     string    `json:"phase,omitempty"`
	Message   string    `json:"message"`
	Duration  int64     `json:"duration,omitempty"` // milliseconds
}

var GlobalExecutor *ChatRunExecutor

func InitExecutor(maxWorkers int) {
	GlobalExecutor = &ChatRunExecutor{
		maxWorkers:  maxWorkers,
		workQueue:   make(chan RunJob, maxWorkers*2),
		running:     make(map[uint]bool),
		cancels:     make(map[uint]context.CancelFunc),
		completions: make(map[uint]chan bool),
	}

	for i := 0; i < maxWorkers; i++ {
		go GlobalExecutor.worker()
	}

	log.Printf("Chat run executor initialized with %d workers", maxWorkers)
}

func (e *ChatRunExecutor) worker() {
	for job := range e.workQueue {
		result := e.executeRun(job.Run, job.FolderURI)

		// Send result to handler FIRST, then wait for the database update to
		// land before releasing internal state, so status queries never see a
		// finished run still marked running.
		job.ResultChan <- result
		log.Printf("✅ Worker sent result for run %d (success=%v) to handler", job.Run.ID, result.Success)

		select {
		case <-job.CompleteChan:
			log.Printf("✅ Handler confirmed database update for run %d", job.Run.ID)
		case <-time.After(10 * time.Second):
			log.Printf("⚠️ Timeout waiting for handler confirmation for run %d, proceeding with cleanup", job.Run.ID)
		}

		e.mutex.Lock()
		delete(e.running, job.Run.ID)
		delete(e.cancels, job.Run.ID)
		delete(e.completions, job.Run.ID)
		e.mutex.Unlock()

		stream.GlobalHub.CloseRun(job.Run.ID)
	}
}

// ExecuteRun queues the run and returns a channel that yields its result.
func (e *ChatRunExecutor) ExecuteRun(run *models.ChatRun, folderURI string) <-chan RunResult {
	e.mutex.Lock()
	e.running[run.ID] = true
	completeChan := make(chan bool, 1)
	e.completions[run.ID] = completeChan
	e.mutex.Unlock()

	resultChan := make(chan RunResult, 1)
	e.workQueue <- RunJob{
		Run:          run,
		FolderURI:    folderURI,
		ResultChan:   resultChan,
		CompleteChan: completeChan,
	}
	return resultChan
}

func (e *ChatRunExecutor) IsRunning(runID uint) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.running[runID]
}

func (e *ChatRunExecutor) GetRunningCount() int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return len(e.running)
}

// GetRunStatus returns the executor's view of a run.
func (e *ChatRunExecutor) GetRunStatus(runID uint) string {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.running[runID] {
		return "running"
	}
	return "completed"
}

// NotifyRunComplete signals that the handler has persisted the run result.
func (e *ChatRunExecutor) NotifyRunComplete(runID uint) {
	e.mutex.RLock()
	completeChan, exists := e.completions[runID]
	e.mutex.RUnlock()

	if exists {
		select {
		case completeChan <- true:
		default:
			// Worker already timed out and moved on.
		}
	}
}

// CancelExecution cancels a running run and tears its VS Code instance down.
func (e *ChatRunExecutor) CancelExecution(runID uint) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.running[runID] {
		return false
	}

	if cancel, exists := e.cancels[runID]; exists {
		log.Printf("Cancelling run %d and stopping its VS Code instance", runID)
		cancel()
	}

	delete(e.running, runID)
	delete(e.cancels, runID)
	delete(e.completions, runID)
	log.Printf("Run %d cancelled", runID)
	return true
}

// Stop gracefully shuts down the executor.
func (e *ChatRunExecutor) Stop() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.workQueue != nil {
		close(e.workQueue)
	}
	for runID, cancel := range e.cancels {
		log.Printf("🛑 Cancelling run %d on shutdown", runID)
		cancel()
	}

	log.Println("Chat run executor stopped")
}

// executeRun drives one full chat turn against a dedicated VS Code instance.
func (e *ChatRunExecutor) executeRun(run *models.ChatRun, folderURI string) (result RunResult) {
	result.Logs = make([]RunLog, 0)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("🚨 PANIC recovered in executeRun for run %d: %v", run.ID, r)
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("automation panic: %v", r)
			e.addLog(&result, run.ID, "error", "", fmt.Sprintf("Run panic recovered: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	e.mutex.Lock()
	e.cancels[run.ID] = cancel
	e.mutex.Unlock()

	startTime := time.Now()
	e.addLog(&result, run.ID, "info", "launch",
		fmt.Sprintf("🚀 Starting run %d (model: %s, mode: %s)", run.ID, run.Model, run.Mode))

	port, err := vscode.GlobalManager.StartVSCode(run.ID, folderURI)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to start VS Code: %v", err)
		e.addLog(&result, run.ID, "error", "launch", result.ErrorMessage)
		return result
	}
	defer vscode.GlobalManager.StopVSCode(run.ID)
	e.addLog(&result, run.ID, "info", "launch", fmt.Sprintf("✅ VS Code started on debug port %d", port))

	cfg := config.GlobalConfig.VSCode
	e.addLog(&result, run.ID, "info", "probe",
		fmt.Sprintf("🔍 Probing debug endpoint (up to %d attempts)", cfg.ProbeAttempts))
	if err := automator.Probe(ctx, "localhost", port, cfg.ProbeAttempts,
		time.Duration(cfg.ProbeInterval)*time.Second); err != nil {
		result.ErrorMessage = fmt.Sprintf("debug endpoint never became reachable: %v", err)
		e.addLog(&result, run.ID, "error", "probe", result.ErrorMessage)
		return result
	}
	e.addLog(&result, run.ID, "info", "probe", "✅ Debug endpoint reachable")

	session, err := automator.Bind(ctx, "localhost", port)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to bind workbench page: %v", err)
		e.addLog(&result, run.ID, "error", "bind", result.ErrorMessage)
		return result
	}
	defer session.Close()
	e.addLog(&result, run.ID, "info", "bind", "✅ Bound to workbench page")

	chat := automator.NewChat(session)
	if err := chat.Open(); err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to open chat panel: %v", err)
		e.addLog(&result, run.ID, "error", "open", result.ErrorMessage)
		return result
	}
	e.addLog(&result, run.ID, "info", "open", "✅ Chat panel open")

	if err := chat.PickModel(run.Model); err != nil {
		result.ErrorMessage = fmt.Sprintf("model selection failed: %v", err)
		e.addLog(&result, run.ID, "error", "pick", result.ErrorMessage)
		return result
	}
	if err := chat.PickMode(run.Mode); err != nil {
		result.ErrorMessage = fmt.Sprintf("mode selection failed: %v", err)
		e.addLog(&result, run.ID, "error", "pick", result.ErrorMessage)
		return result
	}
	e.addLog(&result, run.ID, "info", "pick",
		fmt.Sprintf("✅ Model %q and mode %q selected", run.Model, run.Mode))

	if err := chat.Write(run.Prompt); err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to type prompt: %v", err)
		e.addLog(&result, run.ID, "error", "write", result.ErrorMessage)
		return result
	}
	e.addLog(&result, run.ID, "info", "write",
		fmt.Sprintf("✅ Prompt typed (%d characters)", len(run.Prompt)))

	sendStart := time.Now()
	if err := chat.Send(); err != nil {
		result.ErrorMessage = fmt.Sprintf("send not confirmed: %v", err)
		e.addLog(&result, run.ID, "error", "send", result.ErrorMessage)
		return result
	}
	e.addLogTimed(&result, run.ID, "info", "send", "✅ Turn completed", time.Since(sendStart))

	messages, err := automator.ExtractTranscript(session.Context())
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("transcript extraction failed: %v", err)
		e.addLog(&result, run.ID, "error", "extract", result.ErrorMessage)
		return result
	}
	result.Messages = messages
	e.addLog(&result, run.ID, "info", "extract",
		fmt.Sprintf("✅ Extracted %d transcript messages", len(messages)))

	// The DOM snapshot backs offline debugging of selector drift; losing it
	// does not fail the run.
	if dom, err := session.DumpDOM(); err != nil {
		e.addLog(&result, run.ID, "warn", "export", fmt.Sprintf("⚠️ DOM snapshot failed: %v", err))
	} else {
		result.DOM = dom
	}

	select {
	case <-ctx.Done():
		result.Success = false
		result.ErrorMessage = "run was cancelled"
		e.addLog(&result, run.ID, "info", "", "Run was cancelled")
	default:
		result.Success = true
		e.addLogTimed(&result, run.ID, "info", "",
			fmt.Sprintf("🎉 Run %d completed successfully", run.ID), time.Since(startTime))
	}

	return result
}

// addLog records a log line and mirrors it to live stream subscribers.
func (e *ChatRunExecutor) addLog(result *RunResult, runID uint, level, phase, message string) {
	e.addLogTimed(result, runID, level, phase, message, 0)
}

func (e *ChatRunExecutor) addLogTimed(result *RunResult, runID uint, level, phase, message string, duration time.Duration) {
	entry := RunLog{
		Timestamp: time.Now(),
		Level:     level,
		Phase:     phase,
		Message:   message,
		Duration:  duration.Milliseconds(),
	}
	result.Logs = append(result.Logs, entry)

	stream.GlobalHub.Publish(runID, stream.Event{
		Timestamp: entry.Timestamp,
		Level:     level,
		Phase:     phase,
		Message:   message,
	})
	log.Printf("[run %d] %s", runID, message)
}
