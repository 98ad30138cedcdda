package model

import (
	"encoding/json"
	"fmt"
)

type Tenant struct {
	TenantId         string         `json:"tenantId"`
	TenantName       string         `json:"tenantName"`
	ConnectionString string         `json:"-"`
	Settings         TenantSettings `json:"settings"`
}

type TenantSettings struct {
	BaseUrl string        `json:"baseUrl"`
	Email   EmailSettings `json:"email"`
}

// EmailSettings carries the tenant SMTP configuration, UserName and Password are encrypted.
type EmailSettings struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	EnableSSL   bool   `json:"enableSsl"`
	UserName    string `json:"userName"`
	Password    string `json:"password"`
	FromAddress string `json:"fromAddress"`
}

func ParseTenantSettings(blob []byte) (TenantSettings, error) {
	var settings TenantSettings
	if len(blob) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(blob, &settings); err != nil {
		return settings, fmt.Errorf("parse tenant settings: %w", err)
	}
	return settings, nil
}
