package school

import (
	"testing"
	"time"
)

func TestSubscriptionState(t *testing.T) {
	now := time.Date(2024, time.March, 11, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sch  School
		want string
	}{
		{
			name: "active trial",
			sch:  School{SubscriptionStatus: SubTrial, TrialEndsAt: now.AddDate(0, 0, 3)},
			want: SubTrial,
		},
		{
			name: "trial ended yesterday",
			sch:  School{SubscriptionStatus: SubTrial, TrialEndsAt: now.AddDate(0, 0, -1)},
			want: SubExpired,
		},
		{
			name: "trial ends exactly now",
			sch:  School{SubscriptionStatus: SubTrial, TrialEndsAt: now},
			want: SubExpired,
		},
		{
			name: "paid and current",
			sch:  School{SubscriptionStatus: SubActive, SubscriptionExpiresAt: now.AddDate(0, 1, 0)},
			want: SubActive,
		},
		{
			name: "paid but lapsed",
			sch:  School{SubscriptionStatus: SubActive, SubscriptionExpiresAt: now.AddDate(0, -1, 0)},
			want: SubExpired,
		},
		{
			name: "already marked expired",
			sch:  School{SubscriptionStatus: SubExpired},
			want: SubExpired,
		},
		{
			name: "trial with no end date",
			sch:  School{SubscriptionStatus: SubTrial},
			want: SubTrial,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sch.SubscriptionState(now); got != tt.want {
				t.Errorf("SubscriptionState() = %q, want %q", got, tt.want)
			}
		})
	}
}
