package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/query"
	"github.com/promata/reservas-gateway/internal/upstream"
)

func newTestRequestService(t *testing.T, backend *fakeBackend) (RequestService, *recordingInvalidator) {
	t.Helper()
	qc, _ := newTestQueryCache(t)
	events := &recordingInvalidator{cache: qc}
	svc := NewRequestService(backend.client(t), qc, events, dto.NewImageResolver(""), testValidator(), CacheTTL{List: time.Minute, Detail: time.Minute}, testLogger())
	return svc, events
}

func TestRequestServiceListAdminRepeatsStatus(t *testing.T) {
	backend := newFakeBackend(t)
	backend.on(http.MethodGet, "/request?limit=10&page=1&status=CREATED&status=PAYMENT_SENT", http.StatusOK, `{
		"data": [
			{"id":"q1","member":{"name":"Ana","email":"ana@promata.test"},"request":{"type":"PAYMENT_SENT"}}
		],
		"total": 11, "page": 1, "limit": 10, "totalPages": 2
	}`)
	svc, _ := newTestRequestService(t, backend)

	page, err := svc.ListAdmin(withToken("admin"), query.Values{"status": []string{"CREATED", "PAYMENT_SENT"}})
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, 11, page.Total)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	require.Equal(t, dto.RequestPaymentSent, item.Status)
	require.Equal(t, "Pagamento Enviado", item.StatusLabel)
	require.Equal(t, "Ana", item.Member.Name)
	require.Len(t, item.Actions, 2)
}

func TestRequestServiceListAdminSchemaError(t *testing.T) {
	backend := newFakeBackend(t)
	backend.on(http.MethodGet, "/request?limit=10&page=1", http.StatusOK, `{"data":[{"id":"q1"}],"total":1,"page":1,"limit":10,"totalPages":1}`)
	svc, _ := newTestRequestService(t, backend)

	_, err := svc.ListAdmin(context.Background(), nil)
	var schemaErr *upstream.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.NotEmpty(t, schemaErr.Issues)
	require.JSONEq(t, `{"data":[{"id":"q1"}],"total":1,"page":1,"limit":10,"totalPages":1}`, string(schemaErr.Payload))
}

func TestRequestServiceListAdminRejectsUnknownStatus(t *testing.T) {
	backend := newFakeBackend(t)
	svc, _ := newTestRequestService(t, backend)

	_, err := svc.ListAdmin(context.Background(), query.Values{"status": []string{"LOST"}})
	var filterErr *query.FilterError
	require.ErrorAs(t, err, &filterErr)
	require.Equal(t, "status", filterErr.Key)
}

func TestRequestServiceListReservationGroupsAndProfessors(t *testing.T) {
	backend := newFakeBackend(t)
	backend.on(http.MethodGet, "/reservation/group?limit=10&page=1&search=ana", http.StatusOK, `{"items":[{"id":"g1","status":"CREATED"}],"page":1,"limit":10,"total":1}`)
	backend.on(http.MethodGet, "/professor?limit=10&page=1&status=DOCUMENT_REQUESTED", http.StatusOK, `{"items":[{"id":"p1","type":"DOCUMENT_REQUESTED","user":{"id":"u1","name":"Prof","email":"p@promata.test"},"fileUrl":"https://files/doc.pdf"}],"total":1}`)
	svc, _ := newTestRequestService(t, backend)

	groups, err := svc.ListReservationGroups(withToken("admin"), query.Values{"search": "ana"})
	require.NoError(t, err)
	require.Len(t, groups.Items, 1)
	require.Equal(t, dto.ReservationAwaitingApproval, groups.Items[0].ReservationStatus)

	professors, err := svc.ListProfessorRequests(withToken("admin"), query.Values{"status": []string{"DOCUMENT_REQUESTED"}})
	require.NoError(t, err)
	require.Len(t, professors.Items, 1)
	require.Equal(t, "u1", professors.Items[0].UserID)
	require.Equal(t, "Documento Enviado", professors.Items[0].StatusLabel)
}

func TestRequestServiceTransitionAllowed(t *testing.T) {
	backend := newFakeBackend(t)
	backend.on(http.MethodGet, "/requests/reservation/g1", http.StatusOK, `{"id":"g1","history":[{"type":"CREATED","createdAt":"2025-01-01"}]}`)
	backend.on(http.MethodPost, "/requests/reservation/g1", http.StatusCreated, `{}`)
	svc, events := newTestRequestService(t, backend)

	detail, err := svc.Transition(withToken("admin"), "g1", dto.TransitionPayload{Status: "payment_requested", Description: "<b>Pague</b> via PIX"})
	require.NoError(t, err)
	require.Equal(t, "g1", detail.ID)
	require.Equal(t, []string{ResourceRequest, ResourceReservation}, events.resources)
	require.Equal(t, 1, backend.callCount(http.MethodPost, "/requests/reservation/g1"))

	var posted recordedCall
	for _, call := range backend.calls {
		if call.Method == http.MethodPost {
			posted = call
		}
	}
	require.JSONEq(t, `{"type":"PAYMENT_REQUESTED","description":"Pague via PIX"}`, string(posted.Body))
}

func TestRequestServiceTransitionRejected(t *testing.T) {
	backend := newFakeBackend(t)
	backend.on(http.MethodGet, "/requests/reservation/g1", http.StatusOK, `{"id":"g1","status":"PAYMENT_SENT"}`)
	svc, events := newTestRequestService(t, backend)

	_, err := svc.Transition(withToken("admin"), "g1", dto.TransitionPayload{Status: dto.RequestApproved})
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Transition(withToken("admin"), "g1", dto.TransitionPayload{Status: "SOMETHING"})
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Transition(withToken("admin"), "missing", dto.TransitionPayload{Status: dto.RequestApproved})
	require.ErrorIs(t, err, ErrRequestNotFound)

	require.Zero(t, backend.callCount(http.MethodPost, "/requests/reservation/g1"))
	require.Empty(t, events.resources)
}

func TestRequestServiceReviewProfessor(t *testing.T) {
	backend := newFakeBackend(t)
	backend.on(http.MethodPost, "/admin/professor/approval", http.StatusOK, `{"message":"ok"}`)
	svc, events := newTestRequestService(t, backend)

	err := svc.ReviewProfessor(withToken("admin"), dto.ProfessorApprovalPayload{ID: " p1 ", Approved: true, Observation: "<em>ok</em>"})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"p1","approved":true,"observation":"ok"}`, string(backend.lastCall(t).Body))
	require.Equal(t, []string{ResourceRequest, ResourceUser}, events.resources)

	require.Error(t, svc.ReviewProfessor(context.Background(), dto.ProfessorApprovalPayload{}))
}
