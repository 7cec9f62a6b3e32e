// Package serve exposes the evaluator to a host application over an NDJSON
// stdin/stdout protocol: one "check" request per document, one outcome per
// response. The staging temp file for each request is gone before the
// response is written.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/praetorian-inc/cato"
)

// Version is the server protocol version.
const Version = "1.0.0"

// Server manages the streaming evaluator.
type Server struct {
	evaluator *cato.Evaluator
	encoder   *json.Encoder
	decoder   *json.Decoder
}

// NewServer creates a new streaming server.
func NewServer(evaluator *cato.Evaluator, in io.Reader, out io.Writer) *Server {
	return &Server{
		evaluator: evaluator,
		encoder:   json.NewEncoder(out),
		decoder:   json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop.
func (s *Server) Run(ctx context.Context) error {
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until stdin closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server
// should exit.
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case "check":
		s.handleCheck(req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) handleCheck(payload json.RawMessage) {
	var p CheckPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("check", "invalid payload: "+err.Error())
		return
	}
	if p.Filename == "" {
		s.sendError("check", "filename is required for format routing")
		return
	}

	outcome := s.evaluator.EvaluateBytes(p.Content, p.Filename)

	data, err := json.Marshal(CheckData{Outcome: outcome})
	if err != nil {
		s.sendError("check", err.Error())
		return
	}
	s.encoder.Encode(Response{Success: true, Type: "check", Data: data})
}

func (s *Server) sendReady() {
	data, _ := json.Marshal(ReadyData{Version: Version})
	s.encoder.Encode(Response{Success: true, Type: "ready", Data: data})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{Success: false, Type: reqType, Error: msg})
}
