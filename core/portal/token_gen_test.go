package portal

import (
	"testing"
	"time"
)

func TestMakeVerifyToken(t *testing.T) {
	timeout := 3 * 24 * time.Hour
	gen := NewTokenGenerator("secret", timeout)
	sub := TokenSubject{Role: RoleStudent, ID: "b7d1", State: []byte("hash")}

	validToken, err := gen.MakeToken(PurposePasswordReset, sub)
	if err != nil {
		t.Fatal(err)
	}
	uid := EncodeUID(sub.Role, sub.ID)

	// generate an expired token
	dayLate := timeout + (24 * time.Hour)
	NowFunc = func() time.Time { return time.Now().UTC().Add(-dayLate) }
	expiredToken, _ := gen.MakeToken(PurposePasswordReset, sub)
	NowFunc = func() time.Time { return time.Now().UTC() } // reset

	otherState := sub
	otherState.State = []byte("new hash")

	tests := []struct {
		name    string
		purpose TokenPurpose
		sub     TokenSubject
		token   string
		wantErr error
	}{
		{name: "no token", sub: sub, wantErr: errInvalidToken},
		{name: "no uid", sub: sub, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "other uid", sub: sub, token: EncodeUID(RoleFaculty, sub.ID) + ".HE4TS-sig", wantErr: errInvalidToken},
		{name: "invalid parts len", sub: sub, token: uid + ".lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", sub: sub, token: uid + ".hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", sub: sub, token: uid + ".NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", sub: sub, token: uid + ".HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", sub: sub, token: expiredToken, wantErr: errTokenExpired},
		{name: "state changed", sub: otherState, token: validToken, wantErr: errInvalidToken},
		{name: "other purpose", purpose: PurposeVerifyEmail, sub: sub, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", sub: sub, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purpose := tt.purpose
			if purpose == "" {
				purpose = PurposePasswordReset
			}
			if err := gen.VerifyToken(purpose, tt.sub, tt.token); err != tt.wantErr {
				t.Errorf("VerifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeUID(t *testing.T) {
	token := EncodeUID(RoleSiteSupervisor, "42") + ".HE4TS-sig"
	role, id, err := DecodeUID(token)
	if err != nil {
		t.Fatal(err)
	}
	if role != RoleSiteSupervisor || id != "42" {
		t.Errorf("DecodeUID() = %s, %s", role, id)
	}
	if _, _, err := DecodeUID("nodot"); err != errInvalidToken {
		t.Errorf("DecodeUID() error = %v, want %v", err, errInvalidToken)
	}
}
