package hl7v2

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler provides HTTP endpoints over the parser, encoder and terser.
type Handler struct {
	parseOpts ParseOptions
}

// NewHandler creates an HL7v2 handler parsing with opts.
func NewHandler(opts ParseOptions) *Handler {
	return &Handler{parseOpts: opts}
}

// RegisterRoutes registers HL7v2 endpoints on the provided route group.
//
//	POST /hl7v2/parse       - Parse raw HL7v2 to JSON
//	POST /hl7v2/terser/get  - Read one path from a message
//	POST /hl7v2/terser/set  - Apply path writes and re-encode
//	POST /hl7v2/ack         - Generate an ACK for a message
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/hl7v2/parse", h.ParseMessage)
	g.POST("/hl7v2/terser/get", h.TerserGet)
	g.POST("/hl7v2/terser/set", h.TerserSet)
	g.POST("/hl7v2/ack", h.Ack)
}

// segmentJSON is the JSON representation of a parsed segment.
type segmentJSON struct {
	ID     string      `json:"id"`
	Fields []fieldJSON `json:"fields"`
}

// fieldJSON is the JSON representation of a parsed field. Repetitions are
// listed as component arrays of subcomponent arrays.
type fieldJSON struct {
	Value       string       `json:"value"`
	Repetitions [][][]string `json:"repetitions"`
}

// messageJSON is the JSON representation of a parsed message.
type messageJSON struct {
	Type      string        `json:"type,omitempty"`
	ControlID string        `json:"controlId,omitempty"`
	Version   string        `json:"version,omitempty"`
	Segments  []segmentJSON `json:"segments"`
}

// ParseMessage handles POST /hl7v2/parse. It reads raw HL7v2 from the
// request body and returns the parsed tree as JSON.
func (h *Handler) ParseMessage(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
	}
	if len(body) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "request body is empty",
		})
	}

	msg, err := ParseWithOptions(body, h.parseOpts)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to parse HL7v2 message: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, messageToJSON(msg))
}

func messageToJSON(msg *Message) messageJSON {
	out := messageJSON{
		Type:      msg.Type(),
		ControlID: msg.ControlID(),
		Version:   msg.Version(),
		Segments:  make([]segmentJSON, len(msg.Segments)),
	}
	for i := range msg.Segments {
		seg := &msg.Segments[i]
		fields := make([]fieldJSON, len(seg.Fields))
		for j := range seg.Fields {
			f := &seg.Fields[j]
			reps := make([][][]string, len(f.Repetitions))
			for k := range f.Repetitions {
				comps := make([][]string, len(f.Repetitions[k].Components))
				for l := range f.Repetitions[k].Components {
					comps[l] = f.Repetitions[k].Components[l].Subcomponents
				}
				reps[k] = comps
			}
			fields[j] = fieldJSON{Value: f.Value(), Repetitions: reps}
		}
		out.Segments[i] = segmentJSON{ID: seg.ID, Fields: fields}
	}
	return out
}

// terserGetRequest is the body of POST /hl7v2/terser/get.
type terserGetRequest struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// terserGetResponse distinguishes present-but-empty from absent.
type terserGetResponse struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// TerserGet handles POST /hl7v2/terser/get.
func (h *Handler) TerserGet(c echo.Context) error {
	var req terserGetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	msg, err := ParseWithOptions([]byte(req.Message), h.parseOpts)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to parse HL7v2 message: " + err.Error(),
		})
	}

	value, found, err := NewTerser(msg).Get(req.Path)
	if err != nil {
		if errors.Is(err, ErrInvalidPath) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{
				"error": err.Error(),
			})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, terserGetResponse{Value: value, Found: found})
}

// terserSetRequest is the body of POST /hl7v2/terser/set. Writes are
// applied in order against the parsed message.
type terserSetRequest struct {
	Message string `json:"message"`
	Sets    []struct {
		Path  string `json:"path"`
		Value string `json:"value"`
	} `json:"sets"`
}

// TerserSet handles POST /hl7v2/terser/set and returns the re-encoded
// message text.
func (h *Handler) TerserSet(c echo.Context) error {
	var req terserSetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	msg, err := ParseWithOptions([]byte(req.Message), h.parseOpts)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to parse HL7v2 message: " + err.Error(),
		})
	}

	t := NewTerser(msg)
	for _, set := range req.Sets {
		if err := t.Set(set.Path, set.Value); err != nil {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{
				"error": err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": Encode(msg),
	})
}

// ackRequest is the body of POST /hl7v2/ack.
type ackRequest struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Ack handles POST /hl7v2/ack.
func (h *Handler) Ack(c echo.Context) error {
	var req ackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}
	if req.Code == "" {
		req.Code = AckAccept
	}

	msg, err := ParseWithOptions([]byte(req.Message), h.parseOpts)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to parse HL7v2 message: " + err.Error(),
		})
	}

	ack, err := GenerateACK(msg, req.Code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": Encode(ack),
	})
}
