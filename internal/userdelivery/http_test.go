package userdelivery

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func TestMain(m *testing.M) {
	gin.SetMode(gin.ReleaseMode)
	os.Exit(m.Run())
}

func randomUser() domain.User {
	return domain.User{
		Meta:        domain.NewMeta(randompkg.IntBetween(1, 1000), time.Now().UTC().Truncate(time.Second)),
		Username:    randompkg.Username(),
		Email:       randompkg.Email(),
		IsCorporate: randompkg.Intn(2) == 1,
	}
}

type userBody struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	IsCorporate  bool   `json:"is_corporate"`
	AccountCount int    `json:"account_count"`
}

func decodeData(t *testing.T, body io.Reader, v any) {
	t.Helper()

	data, err := io.ReadAll(body)
	require.NoError(t, err)

	res := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(data, &res))
	require.NoError(t, json.Unmarshal(res.Data, v))
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()

	var res struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&res))

	return res.Error
}

func newServer(userService *MockService, accounts *MockAccountLister) *gin.Engine {
	handler := NewHandler(userService, accounts)

	server := gin.New()
	server.POST("/users", handler.Create)
	server.GET("/users", handler.List)
	server.GET("/users/:id", handler.Get)
	server.PUT("/users/:id", handler.Update)
	server.DELETE("/users/:id", handler.Delete)
	server.GET("/users/:id/accounts", handler.ListAccounts)

	return server
}

func TestCreateAPI(t *testing.T) {
	testUser := randomUser()

	testCases := []struct {
		name          string
		requestBody   gin.H
		buildStubs    func(userService *MockService)
		checkResponse func(recorder *httptest.ResponseRecorder)
	}{
		{
			name: "OK",
			requestBody: gin.H{
				"username":     testUser.Username,
				"email":        testUser.Email,
				"is_corporate": testUser.IsCorporate,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(testUser.Username), gomock.Eq(testUser.Email), gomock.Eq(testUser.IsCorporate)).
					Times(1).
					Return(testUser, nil)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusCreated, recorder.Code)

				var got userBody
				decodeData(t, recorder.Body, &got)

				want := userBody{
					ID:          testUser.ID,
					Username:    testUser.Username,
					Email:       testUser.Email,
					IsCorporate: testUser.IsCorporate,
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("response mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "ShortUsername",
			requestBody: gin.H{
				"username": "ab",
				"email":    testUser.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
				require.Equal(t, "Username must be at least 3", decodeError(t, recorder.Body))
			},
		},
		{
			name: "LongUsername",
			requestBody: gin.H{
				"username": strings.Repeat("a", 21),
				"email":    testUser.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "InvalidEmail",
			requestBody: gin.H{
				"username": testUser.Username,
				"email":    "user%email.com",
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
				require.Equal(t, "Email must be a valid email", decodeError(t, recorder.Body))
			},
		},
		{
			name: "DuplicateUsername",
			requestBody: gin.H{
				"username": testUser.Username,
				"email":    testUser.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.User{}, &domain.DuplicateElementError{Field: "Username", Value: testUser.Username})
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusConflict, recorder.Code)
				require.Equal(t, "Username '"+testUser.Username+"' already exists", decodeError(t, recorder.Body))
			},
		},
		{
			name: "InternalError",
			requestBody: gin.H{
				"username": testUser.Username,
				"email":    testUser.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.User{}, errorspkg.ErrInternal)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusInternalServerError, recorder.Code)
				require.Equal(t, "internal", decodeError(t, recorder.Body))
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userService := NewMockService(ctrl)
			server := newServer(userService, NewMockAccountLister(ctrl))

			tc.buildStubs(userService)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
			require.NoError(t, err)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			tc.checkResponse(recorder)
		})
	}
}

func TestGetAPI(t *testing.T) {
	testUser := randomUser()
	accounts := []domain.Account{{UserID: testUser.ID}, {UserID: testUser.ID}}

	testCases := []struct {
		name          string
		url           string
		buildStubs    func(userService *MockService, accountLister *MockAccountLister)
		checkResponse func(recorder *httptest.ResponseRecorder)
	}{
		{
			name: "OK",
			url:  "/users/" + itoa(testUser.ID),
			buildStubs: func(userService *MockService, accountLister *MockAccountLister) {
				userService.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.ID)).Times(1).Return(testUser, nil)
				accountLister.EXPECT().ListByUser(gomock.Any(), gomock.Eq(testUser.ID)).Times(1).Return(accounts, nil)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)

				var got userBody
				decodeData(t, recorder.Body, &got)
				require.Equal(t, testUser.ID, got.ID)
				require.Equal(t, testUser.Username, got.Username)
				require.Equal(t, 2, got.AccountCount)
			},
		},
		{
			name: "NotFound",
			url:  "/users/404",
			buildStubs: func(userService *MockService, accountLister *MockAccountLister) {
				userService.EXPECT().
					Get(gomock.Any(), gomock.Eq(int64(404))).
					Times(1).
					Return(domain.User{}, domain.NewNotFound(domain.EntityUser, 404))
				accountLister.EXPECT().ListByUser(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusNotFound, recorder.Code)
				require.Equal(t, "User ID: 404 not found", decodeError(t, recorder.Body))
			},
		},
		{
			name: "InvalidID",
			url:  "/users/0",
			buildStubs: func(userService *MockService, accountLister *MockAccountLister) {
				userService.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userService := NewMockService(ctrl)
			accountLister := NewMockAccountLister(ctrl)
			server := newServer(userService, accountLister)

			tc.buildStubs(userService, accountLister)

			req, err := http.NewRequest(http.MethodGet, tc.url, nil)
			require.NoError(t, err)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			tc.checkResponse(recorder)
		})
	}
}

func TestListAPI(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user1, user2 := randomUser(), randomUser()
	user2.ID = user1.ID + 1

	userService := NewMockService(ctrl)
	accountLister := NewMockAccountLister(ctrl)
	server := newServer(userService, accountLister)

	userService.EXPECT().List(gomock.Any()).Times(1).Return([]domain.User{user1, user2}, nil)
	accountLister.EXPECT().ListByUser(gomock.Any(), gomock.Eq(user1.ID)).Times(1).Return([]domain.Account{{}}, nil)
	accountLister.EXPECT().ListByUser(gomock.Any(), gomock.Eq(user2.ID)).Times(1).Return([]domain.Account{}, nil)

	req, err := http.NewRequest(http.MethodGet, "/users", nil)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var got []userBody
	decodeData(t, recorder.Body, &got)
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].AccountCount)
	require.Equal(t, 0, got[1].AccountCount)
}

func TestUpdateAPI(t *testing.T) {
	testUser := randomUser()

	testCases := []struct {
		name          string
		requestBody   gin.H
		buildStubs    func(userService *MockService, accountLister *MockAccountLister)
		checkResponse func(recorder *httptest.ResponseRecorder)
	}{
		{
			name: "OK",
			requestBody: gin.H{
				"username":     testUser.Username,
				"email":        testUser.Email,
				"is_corporate": testUser.IsCorporate,
			},
			buildStubs: func(userService *MockService, accountLister *MockAccountLister) {
				arg := domain.UpdateUserParams{
					Username:    testUser.Username,
					Email:       testUser.Email,
					IsCorporate: testUser.IsCorporate,
				}

				userService.EXPECT().Update(gomock.Any(), gomock.Eq(testUser.ID), gomock.Eq(arg)).Times(1).Return(testUser, nil)
				accountLister.EXPECT().ListByUser(gomock.Any(), gomock.Eq(testUser.ID)).Times(1).Return(nil, nil)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)
			},
		},
		{
			name: "DuplicateEmail",
			requestBody: gin.H{
				"username": testUser.Username,
				"email":    testUser.Email,
			},
			buildStubs: func(userService *MockService, accountLister *MockAccountLister) {
				userService.EXPECT().
					Update(gomock.Any(), gomock.Eq(testUser.ID), gomock.Any()).
					Times(1).
					Return(domain.User{}, &domain.DuplicateElementError{Field: "Email", Value: testUser.Email})
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusConflict, recorder.Code)
			},
		},
		{
			name:        "MissingFields",
			requestBody: gin.H{},
			buildStubs: func(userService *MockService, accountLister *MockAccountLister) {
				userService.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
				require.Equal(t, "Username is required", decodeError(t, recorder.Body))
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userService := NewMockService(ctrl)
			accountLister := NewMockAccountLister(ctrl)
			server := newServer(userService, accountLister)

			tc.buildStubs(userService, accountLister)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodPut, "/users/"+itoa(testUser.ID), bytes.NewReader(body))
			require.NoError(t, err)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			tc.checkResponse(recorder)
		})
	}
}

func TestDeleteAPI(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userService := NewMockService(ctrl)
	server := newServer(userService, NewMockAccountLister(ctrl))

	userService.EXPECT().Delete(gomock.Any(), gomock.Eq(int64(1))).Times(1).Return(nil)
	userService.EXPECT().
		Delete(gomock.Any(), gomock.Eq(int64(2))).
		Times(1).
		Return(domain.NewNotFound(domain.EntityUser, 2))

	req, err := http.NewRequest(http.MethodDelete, "/users/1", nil)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	req, err = http.NewRequest(http.MethodDelete, "/users/2", nil)
	require.NoError(t, err)

	recorder = httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListAccountsAPI(t *testing.T) {
	testUser := randomUser()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userService := NewMockService(ctrl)
	accountLister := NewMockAccountLister(ctrl)
	server := newServer(userService, accountLister)

	accounts := []domain.Account{
		{Meta: domain.Meta{ID: 1}, UserID: testUser.ID},
		{Meta: domain.Meta{ID: 2}, UserID: testUser.ID},
	}

	userService.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.ID)).Times(1).Return(testUser, nil)
	accountLister.EXPECT().ListByUser(gomock.Any(), gomock.Eq(testUser.ID)).Times(1).Return(accounts, nil)

	req, err := http.NewRequest(http.MethodGet, "/users/"+itoa(testUser.ID)+"/accounts", nil)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got []struct {
		ID     int64 `json:"id"`
		UserID int64 `json:"user_id"`
	}
	decodeData(t, recorder.Body, &got)
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].ID)
	require.Equal(t, testUser.ID, got[1].UserID)

	// Unknown user
	userService.EXPECT().
		Get(gomock.Any(), gomock.Eq(int64(404))).
		Times(1).
		Return(domain.User{}, domain.NewNotFound(domain.EntityUser, 404))

	req, err = http.NewRequest(http.MethodGet, "/users/404/accounts", nil)
	require.NoError(t, err)

	recorder = httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}
