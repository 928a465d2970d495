package main

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadGenerateRequestJSON(t *testing.T) {
	body := `{"analysis_id":"ana_1","phone_number":"+911234567890","otp_code":"482910","fingerprint_hash":"a3f1","location":{"lat":12.97,"lng":77.59,"address":"Bengaluru"}}`
	r := httptest.NewRequest("POST", "/evidence/generate", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	req, err := readGenerateRequest(r)
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if req.AnalysisID != "ana_1" || req.OTPCode != "482910" || req.FingerprintHash != "a3f1" {
		t.Fatalf("parsed request = %+v", req)
	}
	if req.PhoneNumber == nil || *req.PhoneNumber != "+911234567890" {
		t.Fatal("phone number not parsed")
	}
	if req.Location == nil || req.Location.Address != "Bengaluru" {
		t.Fatal("location not parsed")
	}
	if req.VoiceBlob != nil {
		t.Fatal("json body should carry no voice blob")
	}
}

func TestReadGenerateRequestRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/evidence/generate", strings.NewReader(`{"analysis_id":"ana_1","bogus":true}`))
	r.Header.Set("Content-Type", "application/json")
	if _, err := readGenerateRequest(r); err == nil {
		t.Fatal("unknown field should be rejected")
	}
}

func TestReadGenerateRequestMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("analysis_id", "ana_2")
	_ = mw.WriteField("otp_code", "111222")
	_ = mw.WriteField("fingerprint_hash", "bb22")
	_ = mw.WriteField("location", `{"lat":1,"lng":2,"address":"x"}`)
	fw, err := mw.CreateFormFile("voice_file", "consent.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("opus-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = mw.Close()

	r := httptest.NewRequest("POST", "/evidence/generate", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	req, err := readGenerateRequest(r)
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if req.AnalysisID != "ana_2" || req.OTPCode != "111222" || req.FingerprintHash != "bb22" {
		t.Fatalf("parsed request = %+v", req)
	}
	if string(req.VoiceBlob) != "opus-bytes" {
		t.Fatalf("voice blob = %q", req.VoiceBlob)
	}
	if req.Location == nil || req.Location.Lat != 1 {
		t.Fatal("location not parsed")
	}
	if req.PhoneNumber != nil {
		t.Fatal("absent phone number should stay nil")
	}
}

func TestReadGenerateRequestMultipartWithoutVoice(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("analysis_id", "ana_3")
	_ = mw.WriteField("otp_code", "999000")
	_ = mw.WriteField("fingerprint_hash", "cc33")
	_ = mw.Close()

	r := httptest.NewRequest("POST", "/evidence/generate", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	req, err := readGenerateRequest(r)
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if req.VoiceBlob != nil {
		t.Fatal("missing voice_file part should leave blob nil")
	}
}
