// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package render

// resultPageTemplate is the standalone result page. It inlines all
// styling so the stored artifact has no external dependencies.
const resultPageTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>会面点推荐 · {{.Keyword}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, "PingFang SC", "Microsoft YaHei", sans-serif;
         margin: 0; background: #f5f6f8; color: #2c3e50; }
  header { background: #2c3e50; color: #fff; padding: 24px 32px; }
  header h1 { margin: 0 0 8px; font-size: 22px; }
  header .meta { font-size: 13px; color: #bdc3c7; }
  main { max-width: 760px; margin: 24px auto; padding: 0 16px; }
  .card { background: #fff; border-radius: 8px; padding: 16px 20px; margin-bottom: 14px;
          box-shadow: 0 1px 3px rgba(0,0,0,0.08); }
  .card .rank { display: inline-block; min-width: 28px; text-align: center;
                background: #3498db; color: #fff; border-radius: 14px; font-size: 14px;
                padding: 2px 8px; margin-right: 10px; }
  .card h2 { display: inline; font-size: 17px; margin: 0; }
  .card .score { float: right; font-size: 20px; font-weight: bold; color: #27ae60; }
  .card .detail { margin-top: 8px; font-size: 13px; color: #7f8c8d; }
  .card .stars { color: #f39c12; }
  .card .reasons { margin-top: 6px; font-size: 13px; color: #2c3e50; }
  .degraded { background: #fdf2e3; border: 1px solid #f39c12; border-radius: 6px;
              padding: 10px 14px; font-size: 13px; margin-bottom: 16px; }
  footer { text-align: center; font-size: 12px; color: #95a5a6; padding: 24px 0; }
</style>
</head>
<body>
<header>
  <h1>会面点推荐 · {{.Keyword}}</h1>
  <div class="meta">
    中心点 {{formatCoord .Centroid.Lat}}, {{formatCoord .Centroid.Lon}} ·
    搜索半径 {{.RadiusM}}m ·
    {{len .Resolved}} 个出发地 ·
    模式 {{.Mode}}{{if .ModeAuto}} (自动){{end}}
  </div>
</header>
<main>
{{if .SemanticDegraded}}<div class="degraded">语义评分暂不可用，本次结果仅基于规则评分。</div>{{end}}
{{range .Venues}}
  <div class="card">
    <span class="rank">{{.Rank}}</span>
    <h2>{{.Candidate.Name}}</h2>
    <span class="score">{{formatScore .Final}}</span>
    <div class="detail">
      {{if gt .Candidate.Rating 0.0}}<span class="stars">{{ratingStars .Candidate.Rating}}</span> {{formatScore .Candidate.Rating}} · {{end}}
      {{formatDistance .Candidate.DistanceMeters}} · {{.Candidate.Type}}
      {{if .Candidate.Address}} · {{.Candidate.Address}}{{end}}
    </div>
    {{if .Reasons}}<div class="reasons">{{joinReasons .Reasons}}</div>{{end}}
  </div>
{{end}}
</main>
<footer>Confluo · 共 {{len .Venues}} 个推荐</footer>
</body>
</html>
`
