// 版权所有 2026 PolicyNav Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的数据库连接池管理，支持健康检查、
统计信息采集与事务重试。

# 概述

本包通过 PoolManager 封装 GORM 与 database/sql 的连接池配置，
统一管理连接生命周期、空闲回收与最大连接数限制。后台健康检查
定期 Ping 数据库，并可通过 StatsReporter 回调把连接数上报到
指标系统。订阅、提醒与操作审计的持久化层构建在此之上。

# 核心类型

  - PoolManager：连接池管理器，持有 GORM 实例与底层 sql.DB。
  - PoolConfig：连接数上限、生命周期与健康检查间隔。

# 事务重试

WithTransactionRetry 对死锁、序列化失败和连接类错误做指数退避
重试，其余错误立即返回。
*/
package database
