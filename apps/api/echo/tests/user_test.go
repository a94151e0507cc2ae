package tests

import (
	"net/http"
	"testing"

	echoapi "github.com/darasa/darasa/apps/api/echo"
	"github.com/darasa/darasa/core/user"
)

func Test_userApi_login(t *testing.T) {
	sch := createSchool(t, "Login High")
	usr := createUser(t, sch.ID, "loginadmin", user.AdminRoles)

	tests := []httpTest{
		{
			name: "empty payload", method: http.MethodPost, path: "/v1/users/login",
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "nope"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown account", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "ghost", Password: "S3cret!pass"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "login with username", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "S3cret!pass"}),
			wantCode: http.StatusOK,
		},
		{
			name: "login with email", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: usr.Email, Password: "S3cret!pass"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				var resp echoapi.LoginResponse
				if err := jsonDecode(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decoding LoginResponse: %v", err)
				}
				if resp.Token == "" {
					t.Error("token should not be empty")
				}
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	sch := createSchool(t, "Query High")
	other := createSchool(t, "Other High")

	admin := createUser(t, sch.ID, "queryadmin", user.AdminRoles)
	gate := createUser(t, sch.ID, "querygate", user.GateRoles)
	createUser(t, other.ID, "otheradmin", user.AdminRoles)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admin required", method: http.MethodGet, path: "/v1/users", token: getToken(t, gate),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "scoped to own institute", method: http.MethodGet, path: "/v1/users", token: getToken(t, admin),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "scoped to own institute" {
				var users []user.User
				if err := jsonDecode(rec.Body.Bytes(), &users); err != nil {
					t.Fatalf("decoding users: %v", err)
				}
				for _, u := range users {
					if u.SchoolID != sch.ID {
						t.Errorf("user %s leaked from school %s", u.Username, u.SchoolID)
					}
				}
			}
		})
	}
}

func Test_userApi_crossTenantDetail(t *testing.T) {
	sch := createSchool(t, "Tenant A High")
	other := createSchool(t, "Tenant B High")

	admin := createUser(t, sch.ID, "tenantadmin", user.AdminRoles)
	foreign := createUser(t, other.ID, "foreignparent", user.ParentRoles)

	// an admin cannot see accounts of another institute
	req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+foreign.ID, getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusNotFound)
	}

	// a parent can see themselves
	req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+foreign.ID, getToken(t, foreign))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusOK)
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	sch := createSchool(t, "Refresh High")
	usr := createUser(t, sch.ID, "refreshadmin", user.AdminRoles)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp echoapi.LoginResponse
	if err := jsonDecode(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding LoginResponse: %v", err)
	}
	if resp.Token == "" {
		t.Error("token should not be empty")
	}
}
