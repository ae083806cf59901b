package model

import (
	"encoding/json"
	"strings"
)

type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusDraft
	StatusPending
	StatusConfirmed
	StatusQuotationSent
	StatusAssigned
	StatusOngoing
	StatusInProgress
	StatusCompleted
	StatusCancelled
)

var statusWire = map[StatusKind]string{
	StatusDraft:         "DRAFT",
	StatusPending:       "PENDING",
	StatusConfirmed:     "CONFIRMED",
	StatusQuotationSent: "QUOTATION_SENT",
	StatusAssigned:      "ASSIGNED",
	StatusOngoing:       "ONGOING",
	StatusInProgress:    "INPROGRESS",
	StatusCompleted:     "COMPLETED",
	StatusCancelled:     "CANCELLED",
}

var statusLabels = map[StatusKind]string{
	StatusDraft:         "Nháp",
	StatusPending:       "Chờ xử lý",
	StatusConfirmed:     "Đã xác nhận",
	StatusQuotationSent: "Đã gửi báo giá",
	StatusAssigned:      "Đã phân xe/tài xế",
	StatusOngoing:       "Đang chạy",
	StatusInProgress:    "Đang thực hiện",
	StatusCompleted:     "Hoàn thành",
	StatusCancelled:     "Đã huỷ",
}

// Status is the backend-owned order status. Values the console does not
// recognise parse to StatusUnknown and keep the raw wire value for display.
type Status struct {
	Kind StatusKind
	Raw  string
}

func NewStatus(kind StatusKind) Status {
	return Status{Kind: kind, Raw: statusWire[kind]}
}

func ParseStatus(raw string) Status {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	for kind, wire := range statusWire {
		if wire == normalized {
			return Status{Kind: kind, Raw: wire}
		}
	}
	return Status{Kind: StatusUnknown, Raw: strings.TrimSpace(raw)}
}

func (s Status) String() string {
	if wire, ok := statusWire[s.Kind]; ok {
		return wire
	}
	return s.Raw
}

func (s Status) Label() string {
	if label, ok := statusLabels[s.Kind]; ok {
		return label
	}
	if s.Raw == "" {
		return "Không rõ"
	}
	return s.Raw
}

func (s Status) Is(kind StatusKind) bool {
	return s.Kind == kind
}

// IsTerminal reports statuses after which the order can no longer be edited.
func (s Status) IsTerminal() bool {
	return s.Kind == StatusCompleted || s.Kind == StatusCancelled
}

// IsUnderway covers statuses where drivers or vehicles are already committed.
func (s Status) IsUnderway() bool {
	return s.Kind == StatusAssigned || s.Kind == StatusOngoing || s.Kind == StatusInProgress
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Status{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}
