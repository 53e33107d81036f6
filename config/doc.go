// Package config 提供 Policy Navigator 的配置管理功能。
//
// 包含配置加载、默认值和校验。
// 支持从 YAML 文件和环境变量加载配置，
// 优先级为 默认值 → 文件 → 环境变量。
package config
