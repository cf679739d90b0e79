package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/romariotrain/shortfeed/internal/video/models"
)

const stampLayout = "2006-01-02 15:04"

func printVideos(out io.Writer, videos []models.Video, empty string) {
	if len(videos) == 0 {
		fmt.Fprintln(out, empty)
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Owner", "Status", "Likes", "Uploaded"})
	for _, v := range videos {
		tw.AppendRow(table.Row{
			v.ID.String(),
			v.Title,
			v.Owner.String(),
			string(v.Status),
			strconv.FormatInt(v.LikesCount, 10),
			v.CreatedAt.Local().Format(stampLayout),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.Render()
}
