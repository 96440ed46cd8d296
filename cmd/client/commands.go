package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maynagashev/filekeeper/internal/models"
)

const downloadFilePerms = 0o644

func (a *app) newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file> <username> <password>",
		Short: "Upload a local file; the first uploader becomes its owner",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			creds := models.Credentials{Username: args[1], Password: args[2]}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("ошибка чтения файла '%s': %w", file, err)
			}

			filename := filepath.Base(file)
			a.logger.Debug("Загрузка файла", "file", file, "filename", filename, "size", len(data))

			message, err := a.client().UploadFile(cmd.Context(), filename, creds, data)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, successStyle.Render(message))
			return nil
		},
	}
}

func (a *app) newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <file> <username> <password>",
		Short: "Download a file you own and write it to <file>",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			creds := models.Credentials{Username: args[1], Password: args[2]}
			filename := filepath.Base(file)
			a.logger.Debug("Скачивание файла", "file", file, "filename", filename)

			data, message, err := a.client().DownloadFile(cmd.Context(), filename, creds)
			if err != nil {
				return err
			}
			a.logger.Debug("Ответ сервера", "message", message, "size", len(data))

			// Локальный файл пишется только после успешного ответа.
			if err = os.WriteFile(file, data, downloadFilePerms); err != nil {
				return fmt.Errorf("ошибка записи файла '%s': %w", file, err)
			}

			fmt.Fprintln(a.out, successStyle.Render("File downloaded: "+file))
			fmt.Fprintln(a.out, subtleStyle.Render(fmt.Sprintf("%d bytes", len(data))))
			return nil
		},
	}
}
