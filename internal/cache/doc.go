// 版权所有 2026 PolicyNav Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的缓存管理能力，支持连接池、健康检查、
JSON 序列化与统计信息采集。

# 概述

本包封装 go-redis 客户端，为政府 API 客户端（Federal Register、
CourtListener）提供统一的响应缓存接口，降低对公开接口的请求频率。
Manager 负责连接生命周期管理，包括初始化、健康检查与优雅关闭。

# 核心类型

  - Manager：缓存管理器，持有 Redis 客户端与进程内命中统计。
  - Config：连接参数、键前缀、默认 TTL 与健康检查间隔。

# 降级策略

缓存未启用或连接失败时，调用方直接请求上游 API；缓存层的任何
错误都不应阻断问答管线。
*/
package cache
