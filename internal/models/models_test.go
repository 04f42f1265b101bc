// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUserRoleAndTwoFactor(t *testing.T) {
	tests := []struct {
		name      string
		user      User
		admin     bool
		needsTOTP bool
	}{
		{name: "admin without 2fa", user: User{Role: RoleAdmin}, admin: true},
		{name: "member with 2fa", user: User{Role: RoleMember, TOTPEnabled: true}, needsTOTP: true},
		{name: "secret pending confirmation", user: User{Role: RoleMember, TOTPSecret: new(string)}},
		{name: "case sensitive role", user: User{Role: Role("Admin")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.IsAdmin(); got != tt.admin {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.admin)
			}
			if got := tt.user.Requires2FA(); got != tt.needsTOTP {
				t.Errorf("Requires2FA() = %v, want %v", got, tt.needsTOTP)
			}
		})
	}
}

func TestWebsitePublicURL(t *testing.T) {
	w := &Website{Slug: "my-bakery"}
	tests := []struct {
		base string
		want string
	}{
		{"https://sitecraft.example", "https://sitecraft.example/sites/my-bakery"},
		{"https://sitecraft.example/", "https://sitecraft.example/sites/my-bakery"},
		{"", "/sites/my-bakery"},
	}
	for _, tt := range tests {
		if got := w.PublicURL(tt.base); got != tt.want {
			t.Errorf("PublicURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestWebsiteOwnershipAndVersion(t *testing.T) {
	owner := uuid.New()
	w := &Website{UserID: owner, LastModified: time.Unix(10, 5)}
	if !w.OwnedBy(owner) {
		t.Error("owner should own the website")
	}
	if w.OwnedBy(uuid.New()) {
		t.Error("another user should not own the website")
	}
	if got := w.Version(); got != 10_000_000_005 {
		t.Errorf("Version() = %d", got)
	}
}

func TestMediaObjectKeys(t *testing.T) {
	m := &Media{S3Key: "2026/03/a.png", Width: 800, Height: 600}
	if got := m.ObjectKeys(); len(got) != 1 || got[0] != "2026/03/a.png" {
		t.Errorf("ObjectKeys() = %v", got)
	}
	thumb := "2026/03/a_thumb.jpg"
	m.ThumbS3Key = &thumb
	if got := m.ObjectKeys(); len(got) != 2 || got[1] != thumb {
		t.Errorf("ObjectKeys() with thumbnail = %v", got)
	}
	if got := m.Pixels(); got != 480_000 {
		t.Errorf("Pixels() = %d", got)
	}
}
