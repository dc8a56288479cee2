package domain

// DownloadResult describes a dubbed result fetched into the output directory.
type DownloadResult struct {
	TaskID       string `json:"task_id"`
	URL          string `json:"url"`
	FileName     string `json:"file_name"`
	BytesWritten int64  `json:"bytes_written"`
	TotalSize    int64  `json:"total_size"`
	Resumed      bool   `json:"resumed"`
}
