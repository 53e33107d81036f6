// Copyright 2026 PolicyNav Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package rag 提供政策文档检索的向量化管线。

该包覆盖从原始政策文本到可检索向量索引的全部阶段：文档分块、
向量化（embedding）、向量存储与相似度检索，并提供工厂函数从全局
配置一键创建完整的检索管线。

# 核心接口/类型

  - VectorStore — 向量存储统一接口（AddDocuments / Search / DeleteDocuments / Count）
  - Embedder — 向量化接口（EmbedQuery / EmbedDocuments / Dimension）
  - Tokenizer — 分块专用分词器接口（CountTokens / Encode）
  - Document — 政策文档的统一表示（ID / Content / Metadata / Embedding）
  - SearchResult — 检索结果（Document + Score + Distance）
  - Index — 组合 Embedder、VectorStore 与 Chunker 的高层检索入口

# 主要能力

  - 文档分块：固定大小、递归两种策略（DocumentChunker）
  - 向量化：确定性本地哈希向量（HashEmbedder）与 OpenAI API（OpenAIEmbedder）
  - 向量存储后端：InMemory / Chroma
  - 工厂函数：NewVectorStoreFromConfig / NewEmbedderFromConfig
*/
package rag
