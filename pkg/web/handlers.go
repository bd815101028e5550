// Package web provides HTTP handlers and REST API endpoints for the workflow editor.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/flowedit/pkg/eventbus"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	editor    *services.Editor
	feed      *eventbus.Feed
	validator *validator.Validate
}

// NewAPIHandlers creates handlers around one editing session. feed may be nil,
// in which case the events endpoint always returns an empty page.
func NewAPIHandlers(editor *services.Editor, feed *eventbus.Feed, validator *validator.Validate) *APIHandlers {
	if validator == nil {
		validator = editor.Validator().Structs()
	}

	return &APIHandlers{
		editor:    editor,
		feed:      feed,
		validator: validator,
	}
}

// Register mounts every editor endpoint on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/registry/nodes", h.GetPalette)
	router.Post("/recommendations", h.GenerateRecommendation)

	w := router.Group("/workflow")
	w.Get("/", h.ExportWorkflow)
	w.Post("/", h.CreateWorkflow)
	w.Put("/", h.ImportWorkflow)
	w.Patch("/", h.UpdateWorkflow)
	w.Get("/validate", h.ValidateWorkflow)
	w.Get("/cards", h.GetCardView)
	w.Get("/canvas", h.GetCanvasView)
	w.Get("/events", h.GetEvents)

	w.Post("/nodes", h.AddNode)
	w.Post("/drop", h.DropNode)
	w.Patch("/nodes/:nodeId", h.UpdateNode)
	w.Delete("/nodes/:nodeId", h.RemoveNode)
	w.Post("/edges", h.AddEdge)
	w.Delete("/edges/:edgeId", h.RemoveEdge)
	w.Put("/selection/:nodeId", h.SelectNode)
	w.Delete("/selection", h.ClearSelection)

	w.Post("/run", h.StartRun)
	w.Get("/run", h.GetRun)
	w.Delete("/run", h.CancelRun)

	p := router.Group("/proposals")
	p.Get("/", h.ListProposals)
	p.Post("/", h.Propose)
	p.Get("/:id", h.GetProposal)
	p.Patch("/:id", h.EditProposal)
	p.Post("/:id/confirm", h.ConfirmProposal)
	p.Post("/:id/reject", h.RejectProposal)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.editor.HealthCheck()

	workflowCheck := "No workflow loaded"
	if w := h.editor.Store().Snapshot(); w != nil {
		workflowCheck = "Workflow " + w.ID + " loaded"
	}

	status := "unhealthy"
	message := "Flowedit API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk {
		status = "healthy"
		message = "Flowedit API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry": registryCheck,
			"workflow": workflowCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetPalette(c fiber.Ctx) error {
	return c.JSON(h.editor.Palette())
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created := h.editor.CreateWorkflow(req.Title, req.Description)

	return c.Status(fiber.StatusCreated).JSON(created)
}

// ImportWorkflow replaces the current workflow with the JSON document in the body.
func (h *APIHandlers) ImportWorkflow(c fiber.Ctx) error {
	loaded, err := h.editor.ImportJSON(c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(loaded)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.editor.UpdateWorkflowMeta(req); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(h.editor.Store().Snapshot())
}

func (h *APIHandlers) ExportWorkflow(c fiber.Ctx) error {
	data, err := h.editor.Export()
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return c.SendString(data)
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	return c.JSON(h.editor.Validate())
}

func (h *APIHandlers) GetCardView(c fiber.Ctx) error {
	view, err := h.editor.CardView()
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) GetCanvasView(c fiber.Ctx) error {
	canvas, err := h.editor.CanvasView()
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(canvas)
}

// GetEvents returns the retained changes with a sequence number above ?after=.
func (h *APIHandlers) GetEvents(c fiber.Ctx) error {
	var after uint64

	if afterStr := c.Query("after"); afterStr != "" {
		parsed, err := strconv.ParseUint(afterStr, 10, 64)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		after = parsed
	}

	if h.feed == nil {
		return c.JSON(EventsResponse{Entries: []eventbus.Entry{}})
	}

	return c.JSON(EventsResponse{
		Last:    h.feed.Last(),
		Entries: h.feed.Since(after),
	})
}

func (h *APIHandlers) AddNode(c fiber.Ctx) error {
	var req AddNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	id, err := h.editor.AddNode(req.Type, req.Position, req.Config)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(IDResponse{ID: id})
}

func (h *APIHandlers) DropNode(c fiber.Ctx) error {
	var req DropNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	id, err := h.editor.DropNode(req.Payload, req.Position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(IDResponse{ID: id})
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	nodeID := c.Params("nodeId")

	var req UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.editor.UpdateNode(nodeID, req); err != nil {
		return handleServiceError(c, err)
	}

	node := h.editor.Store().Snapshot().NodeByID(nodeID)

	return c.JSON(node)
}

func (h *APIHandlers) RemoveNode(c fiber.Ctx) error {
	if err := h.editor.RemoveNode(c.Params("nodeId")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddEdge(c fiber.Ctx) error {
	var req AddEdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	id, err := h.editor.AddEdge(req.Source, req.Target, req.SourceHandle, req.Label)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(IDResponse{ID: id})
}

func (h *APIHandlers) RemoveEdge(c fiber.Ctx) error {
	if err := h.editor.RemoveEdge(c.Params("edgeId")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) SelectNode(c fiber.Ctx) error {
	if err := h.editor.SelectNode(c.Params("nodeId")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ClearSelection(c fiber.Ctx) error {
	h.editor.ClearSelection()

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	exec, err := h.editor.Run(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RunResponse{
		ExecutionID: exec.ID,
		WorkflowID:  exec.WorkflowID,
	})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	return c.JSON(RunStatusResponse{
		Executing: h.editor.Executing(),
		Log:       h.editor.RunLog(),
	})
}

func (h *APIHandlers) CancelRun(c fiber.Ctx) error {
	h.editor.CancelRun()

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GenerateRecommendation(c fiber.Ctx) error {
	run, err := h.editor.GenerateRecommendation(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RevealResponse{Epoch: run.Epoch(), Total: run.Total()})
}

func (h *APIHandlers) ListProposals(c fiber.Ctx) error {
	return c.JSON(h.editor.Cards())
}

func (h *APIHandlers) Propose(c fiber.Ctx) error {
	var req models.VoiceWorkflowIntent
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	card, err := h.editor.Propose(&req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(card)
}

func (h *APIHandlers) GetProposal(c fiber.Ctx) error {
	card, err := h.editor.Card(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(card)
}

func (h *APIHandlers) EditProposal(c fiber.Ctx) error {
	var req models.IntentEdits
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	card, err := h.editor.EditCard(c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(card)
}

func (h *APIHandlers) ConfirmProposal(c fiber.Ctx) error {
	run, err := h.editor.ConfirmCard(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RevealResponse{Epoch: run.Epoch(), Total: run.Total()})
}

func (h *APIHandlers) RejectProposal(c fiber.Ctx) error {
	card, err := h.editor.RejectCard(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(card)
}
