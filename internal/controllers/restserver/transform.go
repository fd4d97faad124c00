package restserver

import (
	"time"

	"github.com/chrissnell/stickplot/internal/pipeline"
	"github.com/chrissnell/stickplot/internal/vectorfield"
)

func plotInfo(job *pipeline.Job) PlotInfo {
	return PlotInfo{
		Name:       job.Name,
		Dataset:    job.Dataset,
		Instrument: job.Query.Instrument,
		View:       string(job.View),
		Format:     job.Render.Format,
		DepthRange: [2]float64{job.Range.DepthMin, job.Range.DepthMax},
		Start:      formatTime(job.Range.TimeMin),
		End:        formatTime(job.Range.TimeMax),
		Title:      job.Render.Title,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// transformField flattens a prepared field into the API representation.
func transformField(job *pipeline.Job, field *vectorfield.Field) VectorsResponse {
	resp := VectorsResponse{
		Name:    job.Name,
		Dataset: job.Dataset,
		Units:   job.Render.Units,
		Start:   field.TimeMin.Unix(),
		End:     field.TimeMax.Unix(),
		Summary: field.Summary,
		Depths:  make([]DepthVectors, len(field.Groups)),
	}

	for _, entry := range field.Scheme.Legend(job.Render.Units) {
		c := vectorfield.Color{RGBA: entry.Color}
		resp.Legend = append(resp.Legend, LegendItem{Label: entry.Label, Color: c.Hex()})
	}

	for i, g := range field.Groups {
		dv := DepthVectors{
			Depth:   g.Depth,
			Summary: g.Summary,
			Vectors: make([]Vector, len(g.Vectors)),
		}
		for j, v := range g.Vectors {
			dv.Vectors[j] = Vector{
				Timestamp: v.Time.Unix(),
				Speed:     v.Speed,
				Direction: v.Direction,
				U:         v.U,
				V:         v.V,
				Color:     v.Color.Hex(),
				Bin:       v.Color.Bin,
			}
		}
		resp.Depths[i] = dv
	}
	return resp
}
