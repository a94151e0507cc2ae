package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	echoapi "github.com/darasa/darasa/apps/api/echo"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/user"
)

func expireSchool(t *testing.T, sch school.School) {
	t.Helper()
	err := schRepo.UpdateSubscription(context.Background(), sch.ID, school.SubExpired, sch.PlanType, sch.SubscriptionExpiresAt)
	if err != nil {
		t.Fatalf("expiring school: %v", err)
	}
}

func Test_schoolApi_subscriptionGate(t *testing.T) {
	sch := createSchool(t, "Expired High")
	admin := createUser(t, sch.ID, "expiredadmin", user.AdminRoles)
	token := getToken(t, admin)

	expireSchool(t, sch)

	// tenant features are gated
	req, rec := newAuthRequest(http.MethodGet, "/v1/students", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusPaymentRequired, rec.Body.String())
	}

	// the school profile stays reachable so the principal can see the state
	req, rec = newAuthRequest(http.MethodGet, "/v1/schools/me", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// redeem a license key; the institute comes back to life
	keys, err := schSvc.MintLicenses(context.Background(), school.KeyDuration{Value: 6, Unit: school.UnitMonths}, 1, "")
	if err != nil {
		t.Fatalf("minting license: %v", err)
	}
	req, rec = newAuthRequest(
		http.MethodPost, "/v1/schools/me/license", token,
		marchallObj(t, echoapi.RedeemLicenseRequest{LicenseKey: keys[0].Key}),
	)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var refreshed school.School
	if err = jsonDecode(rec.Body.Bytes(), &refreshed); err != nil {
		t.Fatalf("decoding school: %v", err)
	}
	if refreshed.SubscriptionStatus != school.SubActive {
		t.Errorf("status = %s; want %s", refreshed.SubscriptionStatus, school.SubActive)
	}
	if !refreshed.SubscriptionExpiresAt.After(time.Now().UTC().AddDate(0, 5, 0)) {
		t.Errorf("expiry = %v; want ~6 months out", refreshed.SubscriptionExpiresAt)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/students", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// a used key cannot be redeemed twice
	req, rec = newAuthRequest(
		http.MethodPost, "/v1/schools/me/license", token,
		marchallObj(t, echoapi.RedeemLicenseRequest{LicenseKey: keys[0].Key}),
	)
	app.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Error("redeeming a used key should fail")
	}
}

func Test_schoolApi_trialLapse(t *testing.T) {
	sch := createSchool(t, "Lapsed High")
	admin := createUser(t, sch.ID, "lapsedadmin", user.AdminRoles)

	// the trial ended yesterday but nobody patched the stored status yet
	sch.TrialEndsAt = time.Now().UTC().AddDate(0, 0, -1)
	if _, err := schRepo.UpdateSchool(context.Background(), sch); err != nil {
		t.Fatalf("backdating trial: %v", err)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/students", getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusPaymentRequired, rec.Body.String())
	}

	// passing through the gate patched the stored status
	stored, err := schRepo.GetSchoolByID(context.Background(), sch.ID)
	if err != nil {
		t.Fatalf("reloading school: %v", err)
	}
	if stored.SubscriptionStatus != school.SubExpired {
		t.Errorf("stored status = %s; want %s", stored.SubscriptionStatus, school.SubExpired)
	}
}

func Test_schoolApi_platformOperations(t *testing.T) {
	sch := createSchool(t, "Ops High")
	admin := createUser(t, sch.ID, "opsadmin", user.AdminRoles)
	super := createUser(t, "", "opssuper", user.SuperRoles)

	mintBody := marchallObj(t, echoapi.MintLicensesRequest{Duration: "6M", Count: 2})

	tests := []httpTest{
		{
			name: "minting requires super", method: http.MethodPost, path: "/v1/licenses",
			token: getToken(t, admin), body: mintBody,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "super mints keys", method: http.MethodPost, path: "/v1/licenses",
			token: getToken(t, super), body: mintBody, wantCode: http.StatusCreated,
		},
		{
			name: "bad duration", method: http.MethodPost, path: "/v1/licenses",
			token: getToken(t, super), body: marchallObj(t, echoapi.MintLicensesRequest{Duration: "6Y"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "registering schools requires super", method: http.MethodPost, path: "/v1/schools",
			token: getToken(t, admin), body: marchallObj(t, school.NewSchool{Name: "X", InstituteType: school.TypeCoaching}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "super registers a school", method: http.MethodPost, path: "/v1/schools",
			token: getToken(t, super), body: marchallObj(t, school.NewSchool{Name: "Coach Inc", InstituteType: school.TypeCoaching}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "super mints keys" {
				var keys []school.LicenseKey
				if err := jsonDecode(rec.Body.Bytes(), &keys); err != nil {
					t.Fatalf("decoding keys: %v", err)
				}
				if len(keys) != 2 {
					t.Errorf("len(keys) = %d; want 2", len(keys))
				}
			}
		})
	}
}
