// Package bithub pays bitcoin to the authors of commits pushed to
// participating GitHub repositories.
//
// @title BitHub API
// @version 0.1.0
// @description Pays bitcoin to the authors of commits pushed to participating GitHub repositories and serves cached payout status.
// @BasePath /
// @securityDefinitions.basic WebhookBasicAuth
package bithub
