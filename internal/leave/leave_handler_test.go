package leave_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"go-leave-engine/internal/leave"
	leaveerrors "go-leave-engine/internal/leave/errors"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiMeta struct {
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Meta  *apiMeta        `json:"meta"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeLeaveService struct {
	submitFn  func(ctx context.Context, companyID, actorID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error)
	approveFn func(ctx context.Context, companyID, actorID, id string) (leave.LeaveResponse, error)
	rejectFn  func(ctx context.Context, companyID, actorID, id, reason string) (leave.LeaveResponse, error)
	getByIDFn func(ctx context.Context, companyID, id string) (leave.LeaveResponse, error)
	getAllFn  func(ctx context.Context, companyID, status string, limit, offset int) ([]leave.LeaveResponse, int64, error)
	pendingFn func(ctx context.Context, companyID, approverID string) ([]leave.LeaveResponse, error)
}

func (f *fakeLeaveService) Submit(ctx context.Context, companyID, actorID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
	return f.submitFn(ctx, companyID, actorID, req)
}
func (f *fakeLeaveService) Approve(ctx context.Context, companyID, actorID, id string) (leave.LeaveResponse, error) {
	return f.approveFn(ctx, companyID, actorID, id)
}
func (f *fakeLeaveService) Reject(ctx context.Context, companyID, actorID, id, reason string) (leave.LeaveResponse, error) {
	return f.rejectFn(ctx, companyID, actorID, id, reason)
}
func (f *fakeLeaveService) GetByID(ctx context.Context, companyID, id string) (leave.LeaveResponse, error) {
	return f.getByIDFn(ctx, companyID, id)
}
func (f *fakeLeaveService) GetAll(ctx context.Context, companyID, status string, limit, offset int) ([]leave.LeaveResponse, int64, error) {
	return f.getAllFn(ctx, companyID, status, limit, offset)
}
func (f *fakeLeaveService) ListPendingApprovals(ctx context.Context, companyID, approverID string) ([]leave.LeaveResponse, error) {
	return f.pendingFn(ctx, companyID, approverID)
}

func TestLeaveHandler_Submit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		companyID := uuid.New().String()
		actorID := uuid.New().String()
		employeeID := uuid.New().String()

		svc := &fakeLeaveService{
			submitFn: func(ctx context.Context, cid, aid string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, actorID, aid)
				assert.Equal(t, employeeID, req.EmployeeID)
				assert.Equal(t, "annual", req.LeaveType)
				return leave.LeaveResponse{
					ID:         uuid.New().String(),
					EmployeeID: req.EmployeeID,
					LeaveType:  req.LeaveType,
					StartDate:  req.StartDate,
					EndDate:    req.EndDate,
					TotalDays:  "3",
					Status:     leave.StatusApproved,
					Confidence: 92.5,
				}, nil
			},
		}

		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"employee_id":"` + employeeID + `","leave_type":"annual","start_date":"2030-06-10","end_date":"2030-06-12","total_days":"3"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("company_id", companyID)
		c.Set("employee_id", actorID)

		h.Submit(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leave.LeaveResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, employeeID, got.EmployeeID)
		assert.Equal(t, leave.StatusApproved, got.Status)
		assert.InDelta(t, 92.5, got.Confidence, 0.001)
	})

	t.Run("negative validation error", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Submit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("negative overlap returns conflict", func(t *testing.T) {
		svc := &fakeLeaveService{
			submitFn: func(ctx context.Context, companyID, actorID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrOverlappingRequest
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"employee_id":"` + uuid.New().String() + `","leave_type":"annual","start_date":"2030-06-10","end_date":"2030-06-12"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("company_id", uuid.New().String())
		c.Set("employee_id", uuid.New().String())

		h.Submit(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "CONFLICT", env.Error.Code)
	})

	t.Run("negative unknown error is masked", func(t *testing.T) {
		svc := &fakeLeaveService{
			submitFn: func(ctx context.Context, companyID, actorID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, errors.New("pq: deadlock detected")
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"employee_id":"` + uuid.New().String() + `","leave_type":"annual","start_date":"2030-06-10","end_date":"2030-06-12"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("company_id", uuid.New().String())
		c.Set("employee_id", uuid.New().String())

		h.Submit(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
		assert.NotContains(t, env.Error.Message, "deadlock")
	})
}

func TestLeaveHandler_GetAll(t *testing.T) {
	t.Run("success with pagination", func(t *testing.T) {
		companyID := uuid.New().String()
		svc := &fakeLeaveService{
			getAllFn: func(ctx context.Context, cid, status string, limit, offset int) ([]leave.LeaveResponse, int64, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, "escalated", status)
				assert.Equal(t, 10, limit)
				assert.Equal(t, 10, offset)
				return []leave.LeaveResponse{
					{ID: uuid.New().String(), LeaveType: "sick", Status: leave.StatusEscalated},
				}, 21, nil
			},
		}

		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leave-requests?status=escalated&page=2&page_size=10", nil)
		c.Set("company_id", companyID)

		h.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		assert.NotNil(t, env.Meta)
		assert.Equal(t, int64(21), env.Meta.Total)
		assert.Equal(t, 3, env.Meta.TotalPages)
		assert.Equal(t, 2, env.Meta.Page)

		var got []leave.LeaveResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, leave.StatusEscalated, got[0].Status)
	})

	t.Run("negative service error", func(t *testing.T) {
		svc := &fakeLeaveService{
			getAllFn: func(ctx context.Context, cid, status string, limit, offset int) ([]leave.LeaveResponse, int64, error) {
				return nil, 0, errors.New("db error")
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leave-requests", nil)
		c.Set("company_id", uuid.New().String())

		h.GetAll(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	})
}

func TestLeaveHandler_GetById(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		companyID := uuid.New().String()
		requestID := uuid.New().String()
		svc := &fakeLeaveService{
			getByIDFn: func(ctx context.Context, cid, id string) (leave.LeaveResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, requestID, id)
				return leave.LeaveResponse{ID: id, LeaveType: "annual", Status: leave.StatusEscalated}, nil
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leave-requests/"+requestID, nil)
		c.Params = []gin.Param{{Key: "id", Value: requestID}}
		c.Set("company_id", companyID)

		h.GetById(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leave.LeaveResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, requestID, got.ID)
	})

	t.Run("negative not found", func(t *testing.T) {
		svc := &fakeLeaveService{
			getByIDFn: func(ctx context.Context, cid, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrLeaveRequestNotFound
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leave-requests/"+uuid.New().String(), nil)
		c.Params = []gin.Param{{Key: "id", Value: uuid.New().String()}}
		c.Set("company_id", uuid.New().String())

		h.GetById(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}

func TestLeaveHandler_ListPendingApprovals(t *testing.T) {
	companyID := uuid.New().String()
	approverID := uuid.New().String()
	svc := &fakeLeaveService{
		pendingFn: func(ctx context.Context, cid, aid string) ([]leave.LeaveResponse, error) {
			assert.Equal(t, companyID, cid)
			assert.Equal(t, approverID, aid)
			return []leave.LeaveResponse{
				{ID: uuid.New().String(), Status: leave.StatusEscalated},
				{ID: uuid.New().String(), Status: leave.StatusEscalated},
			}, nil
		},
	}
	h := leave.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/leave-requests/pending-approvals", nil)
	c.Set("company_id", companyID)
	c.Set("employee_id", approverID)

	h.ListPendingApprovals(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)
	var got []leave.LeaveResponse
	err := json.Unmarshal(env.Data, &got)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLeaveHandler_ApproveReject(t *testing.T) {
	t.Run("approve success", func(t *testing.T) {
		companyID := uuid.New().String()
		actorID := uuid.New().String()
		requestID := uuid.New().String()
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, cid, aid, id string) (leave.LeaveResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, actorID, aid)
				assert.Equal(t, requestID, id)
				return leave.LeaveResponse{ID: id, Status: leave.StatusApproved}, nil
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests/"+requestID+"/approve", nil)
		c.Params = []gin.Param{{Key: "id", Value: requestID}}
		c.Set("company_id", companyID)
		c.Set("employee_id", actorID)

		h.Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leave.LeaveResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, got.Status)
	})

	t.Run("approve already processed returns conflict", func(t *testing.T) {
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, cid, aid, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.AlreadyProcessed(leave.StatusRejected)
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests/"+uuid.New().String()+"/approve", nil)
		c.Params = []gin.Param{{Key: "id", Value: uuid.New().String()}}
		c.Set("company_id", uuid.New().String())
		c.Set("employee_id", uuid.New().String())

		h.Approve(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Message, leave.StatusRejected)
	})

	t.Run("reject success", func(t *testing.T) {
		companyID := uuid.New().String()
		actorID := uuid.New().String()
		requestID := uuid.New().String()
		reason := "coverage too thin that week"
		svc := &fakeLeaveService{
			rejectFn: func(ctx context.Context, cid, aid, id, r string) (leave.LeaveResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, actorID, aid)
				assert.Equal(t, requestID, id)
				assert.Equal(t, reason, r)
				return leave.LeaveResponse{ID: id, Status: leave.StatusRejected, RejectionReason: &r}, nil
			},
		}
		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"reason":"` + reason + `"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests/"+requestID+"/reject", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: requestID}}
		c.Set("company_id", companyID)
		c.Set("employee_id", actorID)

		h.Reject(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leave.LeaveResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, got.Status)
		assert.NotNil(t, got.RejectionReason)
		assert.Equal(t, reason, *got.RejectionReason)
	})

	t.Run("reject without reason is a validation error", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests/"+uuid.New().String()+"/reject", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: uuid.New().String()}}

		h.Reject(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})
}
