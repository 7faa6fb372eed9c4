package dto

import "strings"

// ReservationStatus is the status shown to the reservation owner.
type ReservationStatus string

const (
	ReservationConfirmed           ReservationStatus = "concluida"
	ReservationPaymentPending      ReservationStatus = "pagamento_pendente"
	ReservationRegistrationPending ReservationStatus = "cadastro_pendente"
	ReservationAwaitingApproval    ReservationStatus = "aguardando_aprovacao"
	ReservationCanceled            ReservationStatus = "cancelada"
	ReservationCancelPending       ReservationStatus = "cancelamento_pendente"
	ReservationUnknown             ReservationStatus = "desconhecido"
	ReservationPaymentApproved     ReservationStatus = "pagamento_aprovado"
	ReservationPaymentRejected     ReservationStatus = "pagamento_rejeitado"
)

// ReservationStatuses lists every owner-facing status.
var ReservationStatuses = []ReservationStatus{
	ReservationConfirmed,
	ReservationPaymentPending,
	ReservationRegistrationPending,
	ReservationAwaitingApproval,
	ReservationCanceled,
	ReservationCancelPending,
	ReservationUnknown,
	ReservationPaymentApproved,
	ReservationPaymentRejected,
}

// ReservationStatusValues returns the statuses as strings, for enum filters.
func ReservationStatusValues() []string {
	out := make([]string, 0, len(ReservationStatuses))
	for _, status := range ReservationStatuses {
		out = append(out, string(status))
	}
	return out
}

var groupToReservationStatus = map[RequestStatus]ReservationStatus{
	RequestPeopleRequested:   ReservationRegistrationPending,
	RequestPaymentRequested:  ReservationPaymentPending,
	RequestCreated:           ReservationAwaitingApproval,
	RequestApproved:          ReservationConfirmed,
	RequestCanceled:          ReservationCanceled,
	RequestCanceledRequested: ReservationCancelPending,
	RequestEdited:            ReservationAwaitingApproval,
	RequestRejected:          ReservationCanceled,
	RequestPeopleSent:        ReservationAwaitingApproval,
	RequestPaymentSent:       ReservationAwaitingApproval,
	RequestPaymentApproved:   ReservationPaymentApproved,
	RequestPaymentRejected:   ReservationPaymentRejected,
	RequestDocumentRequested: ReservationAwaitingApproval,
	RequestDocumentApproved:  ReservationConfirmed,
	RequestDocumentRejected:  ReservationCanceled,
}

// ReservationStatusFor maps a group's workflow status to the owner-facing status.
func ReservationStatusFor(status RequestStatus) ReservationStatus {
	if mapped, ok := groupToReservationStatus[status]; ok {
		return mapped
	}
	return ReservationUnknown
}

// GroupStatusFilter narrows the owner's reservation list.
type GroupStatusFilter string

const (
	GroupFilterAll      GroupStatusFilter = "ALL"
	GroupFilterApproved GroupStatusFilter = "APPROVED"
	GroupFilterCanceled GroupStatusFilter = "CANCELED"
	GroupFilterPending  GroupStatusFilter = "PENDING"
)

// ParseGroupStatusFilter defaults to ALL for empty or unknown input.
func ParseGroupStatusFilter(raw string) GroupStatusFilter {
	switch GroupStatusFilter(strings.ToUpper(strings.TrimSpace(raw))) {
	case GroupFilterApproved:
		return GroupFilterApproved
	case GroupFilterCanceled:
		return GroupFilterCanceled
	case GroupFilterPending:
		return GroupFilterPending
	default:
		return GroupFilterAll
	}
}

// Member is a participant of a reservation group.
type Member struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Document  *string `json:"document"`
	Gender    *string `json:"gender"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birthDate"`
}

// Reservation is one experience booked inside a group.
type Reservation struct {
	ID           string     `json:"id"`
	StartDate    *string    `json:"startDate"`
	EndDate      *string    `json:"endDate"`
	Notes        *string    `json:"notes"`
	MembersCount *int       `json:"membersCount"`
	Experience   Experience `json:"experience"`
}

// GroupOwner is the user who created a reservation group.
type GroupOwner struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// ReservationGroup is the normalized reservation group shared by the owner and admin views.
type ReservationGroup struct {
	ID                string            `json:"id"`
	User              *GroupOwner       `json:"user"`
	Notes             *string           `json:"notes"`
	Price             *float64          `json:"price"`
	Status            RequestStatus     `json:"status"`
	ReservationStatus ReservationStatus `json:"reservationStatus"`
	StartDate         *string           `json:"startDate"`
	EndDate           *string           `json:"endDate"`
	Members           []Member          `json:"members"`
	Reservations      []Reservation     `json:"reservations"`
	History           []RequestEvent    `json:"history"`
}

// MapReservationGroup normalizes a backend reservation group.
func MapReservationGroup(raw Raw, resolve func(string) string) ReservationGroup {
	if raw == nil {
		raw = Raw{}
	}
	status, _ := ParseRequestStatus(toString(raw["status"]))

	group := ReservationGroup{
		ID:                toString(raw["id"]),
		Notes:             toStringPtr(raw["notes"]),
		Price:             toFloat(raw["price"]),
		Status:            status,
		ReservationStatus: ReservationStatusFor(status),
		StartDate:         toDate(raw["startDate"]),
		EndDate:           toDate(raw["endDate"]),
		Members:           []Member{},
		Reservations:      []Reservation{},
		History:           MapRequestEvents(pick(raw, "history", "requests")),
	}

	if owner := rawObject(raw["user"]); owner != nil {
		group.User = &GroupOwner{
			ID:    toString(owner["id"]),
			Name:  toString(owner["name"]),
			Email: toStringPtr(owner["email"]),
			Phone: toStringPtr(owner["phone"]),
		}
	}

	for _, item := range rawList(raw["members"]) {
		obj := rawObject(item)
		if obj == nil {
			continue
		}
		group.Members = append(group.Members, Member{
			ID:        toString(obj["id"]),
			Name:      toString(obj["name"]),
			Document:  toDocument(obj["document"]),
			Gender:    toStringPtr(obj["gender"]),
			Phone:     toStringPtr(obj["phone"]),
			BirthDate: toDate(obj["birthDate"]),
		})
	}

	for _, item := range rawList(raw["reservations"]) {
		obj := rawObject(item)
		if obj == nil {
			continue
		}
		experience := rawObject(obj["experience"])
		group.Reservations = append(group.Reservations, Reservation{
			ID:           toString(obj["id"]),
			StartDate:    toDate(obj["startDate"]),
			EndDate:      toDate(obj["endDate"]),
			Notes:        toStringPtr(obj["notes"]),
			MembersCount: toInt(obj["membersCount"]),
			Experience:   MapExperienceWith(experience, resolve),
		})
	}

	if group.StartDate == nil || group.EndDate == nil {
		group.StartDate, group.EndDate = reservationWindow(group.Reservations, group.StartDate, group.EndDate)
	}
	return group
}

// MapReservationGroups normalizes a list payload.
func MapReservationGroups(value any, resolve func(string) string) []ReservationGroup {
	list := rawList(value)
	out := make([]ReservationGroup, 0, len(list))
	for _, item := range list {
		if obj := rawObject(item); obj != nil {
			out = append(out, MapReservationGroup(obj, resolve))
		}
	}
	return out
}

// reservationWindow fills missing group dates from the earliest start and latest end of
// its reservations.
func reservationWindow(reservations []Reservation, start, end *string) (*string, *string) {
	fillStart, fillEnd := start == nil, end == nil
	for _, r := range reservations {
		if fillStart && r.StartDate != nil && (start == nil || earlier(*r.StartDate, *start)) {
			start = r.StartDate
		}
		if fillEnd && r.EndDate != nil && (end == nil || earlier(*end, *r.EndDate)) {
			end = r.EndDate
		}
	}
	return start, end
}

func earlier(a, b string) bool {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	return okA && okB && ta.Before(tb)
}

// ParticipantPayload is a member submitted when creating a group or adding people.
type ParticipantPayload struct {
	Name      string `json:"name" validate:"required,max=150"`
	Phone     string `json:"phone" validate:"required"`
	BirthDate string `json:"birthDate" validate:"required"`
	CPF       string `json:"cpf" validate:"omitempty"`
	Document  string `json:"document"`
	Gender    string `json:"gender" validate:"required,oneof=MALE FEMALE OTHER NOT_INFORMED Male Female Other"`
}

// ReservationAdjustment overrides per-experience details for a booked reservation.
type ReservationAdjustment struct {
	ExperienceID string `json:"experienceId" validate:"required"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Participants int    `json:"participants,omitempty" validate:"gte=0"`
}

// ReservationPayload books one experience inside a group.
type ReservationPayload struct {
	ExperienceID string                  `json:"experienceId" validate:"required"`
	StartDate    string                  `json:"startDate" validate:"required"`
	EndDate      string                  `json:"endDate" validate:"required"`
	MembersCount int                     `json:"membersCount" validate:"gte=1"`
	Adjustments  []ReservationAdjustment `json:"adjustments" validate:"dive"`
}

// CreateGroupPayload is the body accepted when creating a reservation group.
type CreateGroupPayload struct {
	AllowPostConfirmation bool                 `json:"allowPostConfirmation"`
	Notes                 string               `json:"notes" validate:"max=2000"`
	Members               []ParticipantPayload `json:"members" validate:"dive"`
	Reservations          []ReservationPayload `json:"reservations" validate:"required,min=1,dive"`
}

// AddPeoplePayload submits the people requested by an admin.
type AddPeoplePayload struct {
	Members []ParticipantPayload `json:"members" validate:"required,min=1,dive"`
}
