package alignment

const aeneasScript = `
import os
import sys
import tempfile

from aeneas.executetask import ExecuteTask
from aeneas.task import Task


def main():
    if len(sys.argv) < 5:
        raise SystemExit("usage: <audio_path> <text_path> <output_path> <language>")
    audio_path, text_path, output_path, language = sys.argv[1:5]
    language = (language or "heb").strip() or "heb"

    config = "|".join([
        "task_language=" + language,
        "osr=mfcc",
        "sync_map_level=word",
        "is_text_type=plain",
        "os_task_file_format=json",
    ])
    # plain text input yields one fragment per line
    with open(text_path, encoding="utf-8") as src:
        words = src.read().split()
    if not words:
        raise SystemExit("empty transcript")
    fd, lines_path = tempfile.mkstemp(suffix=".txt")
    try:
        with os.fdopen(fd, "w", encoding="utf-8") as dst:
            dst.write("\n".join(words))

        task = Task(config_string=config)
        task.audio_file_path_absolute = audio_path
        task.text_file_path_absolute = lines_path
        task.sync_map_file_path_absolute = output_path

        ExecuteTask(task).execute()
        if task.sync_map is None or len(task.sync_map.fragments) == 0:
            raise SystemExit("no fragments produced")
        task.output_sync_map_file()
    finally:
        os.remove(lines_path)


if __name__ == "__main__":
    main()
`

// aeneasProbeScript exits non-zero when the aeneas package cannot be imported.
const aeneasProbeScript = `import aeneas.executetask, aeneas.task`
