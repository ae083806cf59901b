package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"ptcms/internal/orders/form"
	"ptcms/internal/orders/quote"
	"ptcms/pkg/client"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// Inbound frame types.
const (
	FrameEdit          = "edit"
	FrameRecalculate   = "recalculate"
	FrameAddVehicle    = "add_vehicle"
	FrameRemoveVehicle = "remove_vehicle"
	FrameSetVehicle    = "set_vehicle"
)

// Outbound frame types.
const (
	FramePrice    = "price"
	FrameVehicles = "vehicles"
	FrameError    = "error"
)

type Quoter interface {
	Calculate(ctx context.Context, p quote.Params) (decimal.Decimal, error)
}

// Inbound is a message from the edit page. An edit frame carries the full
// set of price inputs; a nil Discount leaves the discount as it was.
type Inbound struct {
	Type       string                   `json:"type"`
	Vehicles   []model.VehicleSelection `json:"vehicles,omitempty"`
	Distance   float64                  `json:"distance,omitempty"`
	HireTypeID int64                    `json:"hireTypeId,omitempty"`
	StartTime  string                   `json:"startTime,omitempty"`
	EndTime    string                   `json:"endTime,omitempty"`
	Discount   *string                  `json:"discount,omitempty"`

	Index      int    `json:"index,omitempty"`
	CategoryID *int64 `json:"vehicleCategoryId,omitempty"`
	Quantity   *int   `json:"quantity,omitempty"`
}

type Outbound struct {
	Type        string                   `json:"type"`
	Token       uint64                   `json:"token,omitempty"`
	SystemPrice *decimal.Decimal         `json:"systemPrice,omitempty"`
	FinalPrice  *decimal.Decimal         `json:"finalPrice,omitempty"`
	Vehicles    []model.VehicleSelection `json:"vehicles,omitempty"`
	Message     string                   `json:"message,omitempty"`
}

// Server upgrades edit pages to live sessions.
type Server struct {
	upgrader websocket.Upgrader
	quoter   Quoter
	debounce time.Duration
	log      *logger.Logger
}

func NewServer(quoter Quoter, debounce time.Duration, allowedOrigins []string, log *logger.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		quoter:   quoter,
		debounce: debounce,
		log:      log,
	}
}

// originChecker accepts same-origin requests and any listed origin. A "*"
// entry accepts everything.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// Serve runs a session on f until the browser disconnects. The upgrade
// error is returned; once upgraded, Serve only returns when the session ends.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, f *form.Form) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	sess := &Session{
		conn:      conn,
		form:      f,
		quoter:    s.quoter,
		debouncer: quote.NewDebouncer(s.debounce),
		log:       s.log.With("booking_id", f.BookingID),
		ctx:       ctx,
		cancel:    cancel,
	}
	sess.run()
	return nil
}

// Session owns one page's form copy. Frames are handled in arrival order on
// the read loop; price results arrive on timer goroutines and are dropped
// unless their token is still the latest.
type Session struct {
	conn      *websocket.Conn
	form      *form.Form
	quoter    Quoter
	debouncer *quote.Debouncer
	log       *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	wmu sync.Mutex
}

func (s *Session) run() {
	defer func() {
		s.debouncer.Stop()
		s.cancel()
		s.conn.Close()
	}()

	go s.pingLoop()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.log.Debug("Live edit session opened")
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Live edit session closed unexpectedly", "error", err)
			}
			s.log.Debug("Live edit session closed")
			return
		}

		var frame Inbound
		if err := json.Unmarshal(data, &frame); err != nil {
			s.send(Outbound{Type: FrameError, Message: "invalid frame"})
			continue
		}
		s.handle(frame)
	}
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.wmu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.wmu.Unlock()
			if err != nil {
				s.cancel()
				return
			}
		}
	}
}

func (s *Session) handle(frame Inbound) {
	s.mu.Lock()
	editable := s.form.CanEdit()
	reason := s.form.LockedReason()
	s.mu.Unlock()
	if !editable {
		s.send(Outbound{Type: FrameError, Message: reason})
		return
	}

	switch frame.Type {
	case FrameEdit:
		s.handleEdit(frame)
	case FrameRecalculate:
		s.debouncer.Invalidate()
		go s.recalculate(s.debouncer.Latest(), true)
	case FrameAddVehicle, FrameRemoveVehicle, FrameSetVehicle:
		s.handleVehicles(frame)
	default:
		s.send(Outbound{Type: FrameError, Message: "unknown frame type: " + frame.Type})
	}
}

// handleEdit schedules a debounced re-quote when a price input changed. A
// discount-only edit is answered at once from the current system price.
func (s *Session) handleEdit(frame Inbound) {
	s.mu.Lock()
	changed := s.form.SetQuoteParams(quote.Params{
		Selections: frame.Vehicles,
		DistanceKm: frame.Distance,
		HireTypeID: frame.HireTypeID,
		StartTime:  frame.StartTime,
		EndTime:    frame.EndTime,
	})
	discountChanged := frame.Discount != nil && *frame.Discount != s.form.Discount
	if frame.Discount != nil {
		s.form.Discount = *frame.Discount
	}
	system, final := s.form.SystemPrice, s.form.FinalPrice()
	s.mu.Unlock()

	if changed {
		s.schedule()
		return
	}
	if discountChanged {
		s.send(Outbound{Type: FramePrice, Token: s.debouncer.Latest(), SystemPrice: &system, FinalPrice: &final})
	}
}

func (s *Session) handleVehicles(frame Inbound) {
	s.mu.Lock()
	var err error
	switch frame.Type {
	case FrameAddVehicle:
		err = s.form.AddSelection()
	case FrameRemoveVehicle:
		err = s.form.RemoveSelection(frame.Index)
	case FrameSetVehicle:
		if frame.CategoryID != nil {
			err = s.form.SetSelectionCategory(frame.Index, *frame.CategoryID)
		}
		if err == nil && frame.Quantity != nil {
			err = s.form.SetSelectionQuantity(frame.Index, *frame.Quantity)
		}
	}
	vehicles := slices.Clone(s.form.Selections)
	s.mu.Unlock()

	if err != nil {
		s.send(Outbound{Type: FrameError, Message: err.Error()})
		return
	}
	s.send(Outbound{Type: FrameVehicles, Vehicles: vehicles})
	s.schedule()
}

func (s *Session) schedule() {
	s.debouncer.Trigger(func(token uint64) {
		s.recalculate(token, false)
	})
}

// recalculate prices the current inputs. Automatic runs stay silent on
// incomplete inputs and ignore a zero price; manual runs report both.
func (s *Session) recalculate(token uint64, manual bool) {
	s.mu.Lock()
	params := s.form.QuoteParams()
	s.mu.Unlock()

	price, err := s.quoter.Calculate(s.ctx, params)
	if !s.debouncer.IsLatest(token) {
		s.log.Debug("Discarding stale price", "token", token)
		return
	}
	if err != nil {
		if quote.IsIncomplete(err) {
			if manual {
				s.send(Outbound{Type: FrameError, Token: token, Message: err.Error()})
			}
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		s.send(Outbound{Type: FrameError, Token: token, Message: quote.FailurePrefix + upstreamMessage(err)})
		return
	}
	if !manual && !price.IsPositive() {
		return
	}

	s.mu.Lock()
	s.form.SystemPrice = price
	final := s.form.FinalPrice()
	s.mu.Unlock()

	out := Outbound{Type: FramePrice, Token: token, SystemPrice: &price, FinalPrice: &final}
	if manual {
		out.Message = quote.RecalculatedMessage(price)
	}
	s.send(out)
}

func (s *Session) send(frame Outbound) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(frame); err != nil {
		s.log.Warn("Failed to write live frame", "type", frame.Type, "error", err)
	}
}

func upstreamMessage(err error) string {
	var upErr *client.UpstreamError
	if errors.As(err, &upErr) && upErr.Message != "" {
		return upErr.Message
	}
	return client.DefaultErrorMessage
}
