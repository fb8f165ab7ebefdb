package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocator_Query(t *testing.T) {
	tests := []struct {
		name      string
		locator   Locator
		wantQuery string
		wantStr   string
	}{
		{
			name:      "placeholder",
			locator:   Placeholder("E-mail"),
			wantQuery: `[placeholder="E-mail"]`,
			wantStr:   `[placeholder="E-mail"]`,
		},
		{
			name:      "placeholder with quotes",
			locator:   Placeholder(`say "hi"`),
			wantQuery: `[placeholder="say \"hi\""]`,
			wantStr:   `[placeholder="say \"hi\""]`,
		},
		{
			name:      "text first",
			locator:   Text("Sign In").First(),
			wantQuery: "text=Sign In",
			wantStr:   "text=Sign In >> nth=0",
		},
		{
			name:      "selector passes through",
			locator:   CSS(`span:has-text("Admin")`),
			wantQuery: `span:has-text("Admin")`,
			wantStr:   `span:has-text("Admin")`,
		},
		{
			name:      "second logout link",
			locator:   Text("Logout").Nth(1),
			wantQuery: "text=Logout",
			wantStr:   "text=Logout >> nth=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantQuery, tt.locator.Query())
			assert.Equal(t, tt.wantStr, tt.locator.String())
			assert.NoError(t, tt.locator.Validate())
		})
	}
}

func TestLocator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		locator Locator
	}{
		{name: "zero value", locator: Locator{}},
		{name: "empty text", locator: Text("")},
		{name: "negative index", locator: CSS(".fa").Nth(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.locator.Validate())
		})
	}
}

func TestInteraction_StringHidesFillValue(t *testing.T) {
	in := Fill(Placeholder("Password"), "s3cret")
	require.NoError(t, in.Validate())
	assert.Equal(t, `fill [placeholder="Password"]`, in.String())
	assert.NotContains(t, in.String(), "s3cret")

	bad := Interaction{Target: Text("x"), Action: "hover"}
	assert.Error(t, bad.Validate())
}

func TestSelectMatch(t *testing.T) {
	tests := []struct {
		name    string
		locator Locator
		count   int
		want    int
		wantErr error
	}{
		{name: "single unindexed match", locator: Text("Manage Data"), count: 1, want: -1},
		{name: "no match", locator: Text("Manage Data"), count: 0, wantErr: ErrElementNotFound},
		{name: "several unindexed matches", locator: CSS(".fa"), count: 4, wantErr: ErrElementAmbiguous},
		{name: "indexed within range", locator: Text("Logout").Nth(1), count: 2, want: 1},
		{name: "indexed out of range", locator: Text("Logout").Nth(1), count: 1, wantErr: ErrElementNotFound},
		{name: "first of many", locator: CSS(".fa").First(), count: 4, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectMatch(tt.locator, tt.count)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
