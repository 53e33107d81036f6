package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/policynav/policynav/config"
	"github.com/policynav/policynav/rag"
)

// =============================================================================
// 📚 index 命令 — 政策文档语料索引构建
// =============================================================================
// 扫描数据目录下的 *.txt / *.md / *.csv 文件，并发读取后分块、
// 向量化并批量写入向量存储。文件首行形如 "Title: ..." 时作为
// 文档标题，否则使用文件名。
// =============================================================================

// corpusReadConcurrency 限制并发读取的文件数
const corpusReadConcurrency = 8

// corpusExtensions 是索引器接受的文件扩展名
var corpusExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
}

func runIndex(args []string) {
	flags := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := flags.String("config", "", "Path to config file")
	dataDir := flags.String("data-dir", "./data", "Directory with policy documents")
	seed := flags.Bool("seed", false, "Write the built-in sample policy corpus first")
	flags.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	ctx := context.Background()

	// --seed: 先写入内置示例语料（离线可用的政策文本）
	if *seed {
		written, err := writeSeedCorpus(*dataDir)
		if err != nil {
			logger.Fatal("Failed to write seed corpus", zap.Error(err))
		}
		logger.Info("Seed corpus written",
			zap.String("dir", *dataDir),
			zap.Int("files", written),
		)
	}

	// 构建索引（向量化器 + 向量存储 + 分块器均按配置创建）
	index, err := rag.NewIndexFromConfig(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create vector index", zap.Error(err))
	}

	// 并发读取语料
	docs, err := loadCorpus(ctx, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	if len(docs) == 0 {
		logger.Warn("No documents found",
			zap.String("dir", *dataDir),
			zap.String("hint", "expected *.txt, *.md or *.csv files; use --seed for sample data"),
		)
		return
	}

	// 批量写入（分块在 AddBatch 内部完成）
	stored, err := index.AddBatch(ctx, docs)
	if err != nil {
		logger.Fatal("Failed to index documents", zap.Error(err))
	}

	stats, err := index.Stats(ctx)
	if err != nil {
		logger.Warn("Failed to read index stats", zap.Error(err))
	}

	logger.Info("Corpus indexed",
		zap.Int("files", len(docs)),
		zap.Int("chunks_stored", stored),
		zap.Int("total_vectors", stats.Count),
		zap.Int("dimension", stats.Dimension),
	)
	fmt.Printf("Indexed %d documents (%d chunks) from %s\n", len(docs), stored, *dataDir)
}

// =============================================================================
// 🗂️ 语料加载
// =============================================================================

// loadCorpus 扫描目录并并发读取全部语料文件。
// 文件按路径排序后并发读取，结果顺序与扫描顺序一致。
func loadCorpus(ctx context.Context, dir string) ([]rag.Document, error) {
	paths, err := collectCorpusFiles(dir)
	if err != nil {
		return nil, err
	}

	docs := make([]rag.Document, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(corpusReadConcurrency)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			doc, err := loadCorpusFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 过滤空文件
	out := docs[:0]
	for _, d := range docs {
		if d.Content != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

// collectCorpusFiles 返回目录下所有受支持扩展名的文件路径
func collectCorpusFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if corpusExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// loadCorpusFile 读取单个语料文件并构造文档。
// 文档 ID 为 "doc-<文件名去扩展名>"；首行 "Title: ..." 提取为标题元数据，
// 标题行本身不进入正文。
func loadCorpusFile(path string) (rag.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rag.Document{}, err
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	content := strings.TrimSpace(string(data))
	title := stem

	// 首行标题覆盖
	line, rest, _ := strings.Cut(content, "\n")
	if after, ok := strings.CutPrefix(line, "Title:"); ok {
		if t := strings.TrimSpace(after); t != "" {
			title = t
			content = strings.TrimSpace(rest)
		}
	}

	return rag.Document{
		ID:      "doc-" + stem,
		Content: content,
		Metadata: map[string]any{
			"title":  title,
			"source": base,
		},
	}, nil
}

// =============================================================================
// 🌱 内置示例语料
// =============================================================================

// seedCorpus 是离线可用的示例政策文本，覆盖四类常见问题：
// 平台责任、数字资产、数据保护、医疗隐私。
var seedCorpus = map[string]string{
	"section230.txt": `Title: Section 230 of the Communications Decency Act

Section 230 of the Communications Decency Act of 1996 provides immunity
to online platforms for content posted by their users. The statute states
that no provider or user of an interactive computer service shall be
treated as the publisher or speaker of any information provided by another
information content provider.

The law contains two main protections. Section 230(c)(1) shields platforms
from liability for third-party content they host. Section 230(c)(2)
protects good-faith moderation decisions, allowing platforms to remove
content they consider obscene, harassing, or otherwise objectionable
without incurring publisher liability.

Section 230 does not protect platforms from federal criminal law,
intellectual property claims, or the Electronic Communications Privacy
Act. The FOSTA-SESTA amendments of 2018 further removed immunity for
content that facilitates sex trafficking.

Courts have interpreted Section 230 broadly since Zeran v. America Online
(1997), which established that platforms retain immunity even when
notified of allegedly defamatory content. Recent litigation and proposed
legislation continue to test the boundaries of this immunity.`,

	"eo14067.txt": `Title: Executive Order 14067 on Digital Assets

Executive Order 14067, Ensuring Responsible Development of Digital Assets,
was signed on March 9, 2022. It establishes the first whole-of-government
strategy for digital assets, including cryptocurrencies and central bank
digital currencies.

The order directs federal agencies to assess six priorities: consumer and
investor protection, financial stability, illicit finance, United States
leadership in the global financial system, financial inclusion, and
responsible innovation.

The order places urgency on research and development of a potential United
States central bank digital currency (CBDC). The Department of the
Treasury, the Federal Reserve, and other agencies were directed to produce
reports on the future of money and payment systems.

Compliance obligations for exchanges and custodians flow from the
subsequent agency frameworks, including Treasury action plans on illicit
finance risk and Commerce Department frameworks for economic
competitiveness.`,

	"gdpr.txt": `Title: General Data Protection Regulation Overview

The General Data Protection Regulation (GDPR), Regulation (EU) 2016/679,
took effect on May 25, 2018. It governs the processing of personal data of
individuals in the European Union and applies to any organization offering
goods or services to EU residents regardless of where the organization is
established.

The regulation rests on seven principles: lawfulness, fairness and
transparency; purpose limitation; data minimisation; accuracy; storage
limitation; integrity and confidentiality; and accountability.

Data subjects hold enforceable rights including access, rectification,
erasure, restriction of processing, data portability, and objection.
Controllers must report personal data breaches to the supervisory
authority within 72 hours of becoming aware of them.

Non-compliance carries administrative fines up to 20 million euros or 4
percent of total worldwide annual turnover, whichever is higher.
Organizations processing large volumes of sensitive data must appoint a
data protection officer and conduct data protection impact assessments.`,

	"hipaa.txt": `Title: HIPAA Privacy and Security Rules

The Health Insurance Portability and Accountability Act of 1996 (HIPAA)
establishes national standards for the protection of individually
identifiable health information. The Privacy Rule governs the use and
disclosure of protected health information (PHI) by covered entities:
health plans, health care clearinghouses, and health care providers.

The Security Rule requires administrative, physical, and technical
safeguards for electronic PHI. Covered entities must conduct risk
assessments, implement access controls and audit logging, and encrypt
data where reasonable and appropriate.

The Breach Notification Rule requires covered entities to notify affected
individuals within 60 days of discovering a breach of unsecured PHI.
Breaches affecting 500 or more individuals must also be reported to the
Department of Health and Human Services and prominent media outlets.

Business associates that handle PHI on behalf of covered entities are
directly liable for compliance with the Security Rule and many Privacy
Rule provisions under the 2013 Omnibus Rule.`,
}

// writeSeedCorpus 将内置示例语料写入数据目录（已存在的文件跳过），
// 返回新写入的文件数。
func writeSeedCorpus(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	written := 0
	for name, content := range seedCorpus {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
