package dto

import "strings"

// RequestStatus is the state of an administrative request.
type RequestStatus string

const (
	RequestCreated           RequestStatus = "CREATED"
	RequestCanceled          RequestStatus = "CANCELED"
	RequestCanceledRequested RequestStatus = "CANCELED_REQUESTED"
	RequestEdited            RequestStatus = "EDITED"
	RequestRejected          RequestStatus = "REJECTED"
	RequestApproved          RequestStatus = "APPROVED"
	RequestPeopleRequested   RequestStatus = "PEOPLE_REQUESTED"
	RequestPaymentRequested  RequestStatus = "PAYMENT_REQUESTED"
	RequestPeopleSent        RequestStatus = "PEOPLE_SENT"
	RequestPaymentSent       RequestStatus = "PAYMENT_SENT"
	RequestPaymentApproved   RequestStatus = "PAYMENT_APPROVED"
	RequestPaymentRejected   RequestStatus = "PAYMENT_REJECTED"
	RequestDocumentRequested RequestStatus = "DOCUMENT_REQUESTED"
	RequestDocumentApproved  RequestStatus = "DOCUMENT_APPROVED"
	RequestDocumentRejected  RequestStatus = "DOCUMENT_REJECTED"
)

// RequestStatuses lists every known request status.
var RequestStatuses = []RequestStatus{
	RequestCreated,
	RequestCanceled,
	RequestCanceledRequested,
	RequestEdited,
	RequestRejected,
	RequestApproved,
	RequestPeopleRequested,
	RequestPaymentRequested,
	RequestPeopleSent,
	RequestPaymentSent,
	RequestPaymentApproved,
	RequestPaymentRejected,
	RequestDocumentRequested,
	RequestDocumentApproved,
	RequestDocumentRejected,
}

// RequestStatusValues returns the statuses as strings, for enum filters.
func RequestStatusValues() []string {
	out := make([]string, 0, len(RequestStatuses))
	for _, status := range RequestStatuses {
		out = append(out, string(status))
	}
	return out
}

// ParseRequestStatus accepts a status case-insensitively.
func ParseRequestStatus(raw string) (RequestStatus, bool) {
	candidate := RequestStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, status := range RequestStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestApproved:          {RequestCanceled, RequestPaymentRequested, RequestPeopleRequested},
	RequestCanceled:          {},
	RequestCanceledRequested: {RequestCanceled, RequestApproved, RequestPaymentRequested, RequestPeopleRequested},
	RequestCreated:           {RequestCanceled, RequestApproved, RequestPaymentRequested, RequestPeopleRequested},
	RequestEdited:            {RequestCanceled, RequestApproved, RequestPaymentRequested, RequestPeopleRequested},
	RequestPeopleRequested:   {RequestCanceled, RequestApproved},
	RequestPeopleSent:        {RequestCanceled, RequestApproved, RequestPaymentRequested, RequestPeopleRequested},
	RequestPaymentRequested:  {RequestCanceled, RequestApproved},
	RequestPaymentSent:       {RequestPaymentApproved, RequestPaymentRejected},
	RequestPaymentRejected:   {RequestCanceled, RequestPaymentRequested},
	RequestPaymentApproved:   {RequestCanceled, RequestApproved, RequestPaymentRequested, RequestPeopleRequested},
	RequestRejected:          {},
}

// AllowedActions lists, in button order, the statuses an admin may move a request to.
// Statuses without an entry allow nothing.
func AllowedActions(status RequestStatus) []RequestStatus {
	return append([]RequestStatus{}, requestTransitions[status]...)
}

// CanTransition reports whether target is an allowed action from current.
func CanTransition(current, target RequestStatus) bool {
	for _, allowed := range requestTransitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

var requestLabels = map[RequestStatus]string{
	RequestApproved:          "Aprovada",
	RequestCanceled:          "Cancelada",
	RequestCanceledRequested: "Cancelamento Solicitado",
	RequestCreated:           "Nova",
	RequestEdited:            "Edição pendente",
	RequestPeopleRequested:   "Pessoas Solicitadas",
	RequestPeopleSent:        "Pessoas Enviadas",
	RequestPaymentRequested:  "Pagamento Solicitado",
	RequestPaymentSent:       "Pagamento Enviado",
	RequestPaymentApproved:   "Pagamento Aprovado",
	RequestPaymentRejected:   "Pagamento Rejeitado",
	RequestRejected:          "Rejeitada",
	RequestDocumentRequested: "Documento Enviado",
	RequestDocumentApproved:  "Documento Aprovado",
	RequestDocumentRejected:  "Documento Rejeitado",
}

var actionLabels = map[RequestStatus]string{
	RequestApproved:         "APROVAR",
	RequestCanceled:         "CANCELAR",
	RequestPaymentRequested: "SOLICITAR PAGAMENTO",
	RequestPeopleRequested:  "SOLICITAR PESSOAS",
	RequestPaymentApproved:  "CONFIRMAR PAGAMENTO",
	RequestPaymentRejected:  "REJEITAR PAGAMENTO",
}

// Label is the admin-facing description of the status.
func (s RequestStatus) Label() string {
	if label, ok := requestLabels[s]; ok {
		return label
	}
	return string(s)
}

// RequestAction is one button offered to the admin for a request.
type RequestAction struct {
	Status RequestStatus `json:"status"`
	Label  string        `json:"label"`
}

// ActionsFor renders the allowed actions with their button labels.
func ActionsFor(status RequestStatus) []RequestAction {
	allowed := requestTransitions[status]
	out := make([]RequestAction, 0, len(allowed))
	for _, target := range allowed {
		label, ok := actionLabels[target]
		if !ok {
			label = string(target)
		}
		out = append(out, RequestAction{Status: target, Label: label})
	}
	return out
}

// RequestMember identifies who opened a request.
type RequestMember struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RequestAdminItem is one row of the admin request listing.
type RequestAdminItem struct {
	ID          string          `json:"id"`
	Member      RequestMember   `json:"member"`
	Status      RequestStatus   `json:"status"`
	StatusLabel string          `json:"statusLabel"`
	Actions     []RequestAction `json:"actions"`
}

// MapRequestAdminItem normalizes an entry of the /request listing.
func MapRequestAdminItem(raw Raw) RequestAdminItem {
	member := rawObject(raw["member"])
	if member == nil {
		member = Raw{}
	}
	status, _ := ParseRequestStatus(toString(pick(rawObject(raw["request"]), "type")))
	if status == "" {
		status, _ = ParseRequestStatus(toString(pick(raw, "type", "status")))
	}
	return RequestAdminItem{
		ID:          toString(raw["id"]),
		Member:      RequestMember{Name: toString(member["name"]), Email: toString(member["email"])},
		Status:      status,
		StatusLabel: status.Label(),
		Actions:     ActionsFor(status),
	}
}

// RequestEvent is an entry of a reservation group's request history.
type RequestEvent struct {
	Type        RequestStatus `json:"type"`
	Description *string       `json:"description"`
	CreatedAt   *string       `json:"createdAt"`
	FileURL     *string       `json:"fileUrl,omitempty"`
}

// MapRequestEvents normalizes a history list, dropping entries with unknown types.
func MapRequestEvents(value any) []RequestEvent {
	list := rawList(value)
	out := make([]RequestEvent, 0, len(list))
	for _, item := range list {
		obj := rawObject(item)
		if obj == nil {
			continue
		}
		status, ok := ParseRequestStatus(toString(obj["type"]))
		if !ok {
			continue
		}
		out = append(out, RequestEvent{
			Type:        status,
			Description: toStringPtr(obj["description"]),
			CreatedAt:   toDate(obj["createdAt"]),
			FileURL:     toStringPtr(obj["fileUrl"]),
		})
	}
	return out
}

// TransitionPayload asks the backend to move a reservation group to a new status.
type TransitionPayload struct {
	Status      RequestStatus `json:"status" validate:"required"`
	Description string        `json:"description" validate:"max=1000"`
}

// ProfessorApprovalPayload approves or rejects a professor's document.
type ProfessorApprovalPayload struct {
	ID          string `json:"id" validate:"required"`
	Approved    bool   `json:"approved"`
	Observation string `json:"observation" validate:"max=1000"`
}

// ProfessorRequest is one row of the professor approval listing.
type ProfessorRequest struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Status      RequestStatus `json:"status"`
	StatusLabel string        `json:"statusLabel"`
	FileURL     *string       `json:"fileUrl"`
	CreatedAt   *string       `json:"createdAt"`
}

// MapProfessorRequest normalizes an entry of the /professor listing.
func MapProfessorRequest(raw Raw) ProfessorRequest {
	user := rawObject(pick(raw, "user", "member"))
	if user == nil {
		user = Raw{}
	}
	status, _ := ParseRequestStatus(toString(pick(raw, "type", "status")))
	return ProfessorRequest{
		ID:          toString(raw["id"]),
		UserID:      toString(pick(user, "id")),
		Name:        toString(user["name"]),
		Email:       toString(user["email"]),
		Status:      status,
		StatusLabel: status.Label(),
		FileURL:     toStringPtr(raw["fileUrl"]),
		CreatedAt:   toDate(raw["createdAt"]),
	}
}

// ReservationRequestDetail is the admin view of one reservation request: the group, its
// current workflow status and the actions an admin may take from it.
type ReservationRequestDetail struct {
	ReservationGroup
	StatusLabel string          `json:"statusLabel"`
	Actions     []RequestAction `json:"actions"`
}

// CurrentStatus is the group's status, or the type of its latest history event when the
// backend omits it.
func (g ReservationGroup) CurrentStatus() RequestStatus {
	if g.Status != "" {
		return g.Status
	}
	if n := len(g.History); n > 0 {
		return g.History[n-1].Type
	}
	return ""
}

// NewReservationRequestDetail decorates group with its status label and allowed actions.
func NewReservationRequestDetail(group ReservationGroup) ReservationRequestDetail {
	status := group.CurrentStatus()
	if group.Status == "" && status != "" {
		group.Status = status
		group.ReservationStatus = ReservationStatusFor(status)
	}
	return ReservationRequestDetail{
		ReservationGroup: group,
		StatusLabel:      status.Label(),
		Actions:          ActionsFor(status),
	}
}
